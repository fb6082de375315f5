// Package logging wires the slog pipeline: JSON records to stdout for
// operators, with ERROR+ records mirrored into the system_logs table so
// best-effort failures (audit writes, mail sends) stay discoverable after
// the fact.
package logging

import (
	"log/slog"
	"os"
)

// Setup installs the stdout JSON logger. The database sink is attached
// later, once a connection exists, by swapping in a MultiHandler.
func Setup() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}
