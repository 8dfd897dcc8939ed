// Package logger is dosekeep's process-wide structured log. Records go to a
// rotated file under the config directory; --debug mirrors them on stderr.
// Every helper is a no-op until Init runs, so tests and library callers can
// log freely.
package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/julianstephens/dosekeep/internal/constants"
)

// File rotation and level defaults.
const (
	rotateAtMB   = 10
	keepFiles    = 3
	keepForDays  = 28
	logSubdir    = "logs"
	dirPerm      = 0o755
	quietLevel   = log.WarnLevel
	verboseLevel = log.DebugLevel
)

// Logger is nil until Init.
var Logger *log.Logger

type Config struct {
	Debug     bool
	ConfigDir string // the log lands in ConfigDir/logs/dosekeep.log
}

// Path returns where Init writes the log for cfg.
func Path(cfg Config) string {
	return filepath.Join(cfg.ConfigDir, logSubdir, constants.AppName+".log")
}

func Init(cfg Config) error {
	file := Path(cfg)
	if err := os.MkdirAll(filepath.Dir(file), dirPerm); err != nil {
		return err
	}

	var out io.Writer = &lumberjack.Logger{
		Filename:   file,
		MaxSize:    rotateAtMB,
		MaxBackups: keepFiles,
		MaxAge:     keepForDays,
		Compress:   true,
	}
	level := quietLevel
	if cfg.Debug {
		out = io.MultiWriter(os.Stderr, out)
		level = verboseLevel
	}

	Logger = log.NewWithOptions(out, log.Options{
		Level:           level,
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		ReportCaller:    cfg.Debug,
	})
	return nil
}

func Debug(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

func Info(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

func Warn(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

func Error(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// Fatal records msg when a log is open and exits with status 1 either way.
func Fatal(msg string, keyvals ...any) {
	if Logger != nil {
		Logger.Fatal(msg, keyvals...)
	}
	os.Exit(1)
}
