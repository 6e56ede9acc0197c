// Package logging provides slog loggers with per-module levels.
//
// Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{"session": "debug"},
//	})
//	logger := logging.GetLogger("session")
//	logger.Info("Camera connected", "device", id)
//
// Records go to stdout (text or JSON), to the systemd journal when journald
// is reachable, and to an in-memory history of recent entries. Module
// levels are backed by slog.LevelVar and can be changed at runtime with
// SetModuleLevel, which the config watcher uses on reload.
//
// Journal entries carry SYSLOG_IDENTIFIER=camsession, a MODULE field and
// dedicated fields for session attributes:
//
//	journalctl -t camsession MODULE=session -f
//	journalctl -t camsession CAMSESSION_DEVICE=usb-cam-a SESSION_STATE=previewing
package logging
