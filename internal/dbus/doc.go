// Package dbus connects ringd to the desktop session over D-Bus.
// It exports the io.github.jmylchreest.Ringd control interface, delivers
// screen-off signals to subscribers, and drives the usensord haptic service.
package dbus
