// Package daemon provides the main orchestration for ringd.
// It coordinates the D-Bus ringer server, the system event bus, the ringer
// session controller and configuration hot-reload.
package daemon
