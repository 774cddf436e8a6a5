// Package logger owns the process-wide log sink. Commands are short-lived,
// so everything goes to a rotating file under the config dir; stderr stays
// quiet unless debug is on.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// std discards until Init runs, so engine packages can log unconditionally
// (tests never call Init).
var std = log.New(io.Discard)

// Config holds logger configuration.
type Config struct {
	Debug     bool
	ConfigDir string
}

// Init points the package logger at a rotating file next to the store.
// With Debug set, output is mirrored to stderr at debug level and call
// sites are reported.
func Init(cfg Config) error {
	logDir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return err
	}

	sink := io.Writer(&lumberjack.Logger{
		Filename:   filepath.Join(logDir, "sproutbook.log"),
		MaxSize:    5, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
	})

	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
		sink = io.MultiWriter(os.Stderr, sink)
	}

	std = log.NewWithOptions(sink, log.Options{
		ReportCaller:    cfg.Debug,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "sproutbook",
	})
	return nil
}

func Debug(msg string, keyvals ...interface{}) { std.Debug(msg, keyvals...) }
func Info(msg string, keyvals ...interface{})  { std.Info(msg, keyvals...) }
func Warn(msg string, keyvals ...interface{})  { std.Warn(msg, keyvals...) }
func Error(msg string, keyvals ...interface{}) { std.Error(msg, keyvals...) }
