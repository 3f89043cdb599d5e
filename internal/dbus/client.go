package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/ringd/internal/model"
)

// Client calls a running ringd over the session bus.
type Client struct {
	obj busObject
}

// NewClient connects to the session bus and returns a Client for ringd.
func NewClient() (*Client, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &Client{obj: conn.Object(DBusBusName, DBusPath)}, nil
}

// Play asks ringd to start ringing.
func (c *Client) Play(params model.Params) error {
	if err := c.obj.Call(DBusInterface+".Play", 0, params.Variants()).Err; err != nil {
		return fmt.Errorf("ringd Play: %w", err)
	}
	return nil
}

// Stop asks ringd to stop ringing.
func (c *Client) Stop() error {
	if err := c.obj.Call(DBusInterface+".Stop", 0).Err; err != nil {
		return fmt.Errorf("ringd Stop: %w", err)
	}
	return nil
}

// Playing reports whether ringd is ringing.
func (c *Client) Playing() (bool, error) {
	var playing bool
	if err := c.obj.Call(DBusInterface+".Playing", 0).Store(&playing); err != nil {
		return false, fmt.Errorf("ringd Playing: %w", err)
	}
	return playing, nil
}
