package dbus

import (
	"fmt"
)

// EmitStopped emits the Stopped signal.
// This signal is emitted whenever a ringing session ends, whether by request,
// replacement, or the screen turning off.
func (s *RingerServer) EmitStopped(reason string) error {
	s.mu.RLock()
	conn, running := s.conn, s.running
	s.mu.RUnlock()

	if conn == nil || !running {
		return fmt.Errorf("not connected to D-Bus")
	}

	if err := conn.Emit(DBusPath, DBusInterface+".Stopped", reason); err != nil {
		return fmt.Errorf("failed to emit Stopped signal: %w", err)
	}

	s.logger.Debug("emitted Stopped signal", "reason", reason)
	return nil
}
