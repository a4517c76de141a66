package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lni/dragonboat/v4/logger"
)

// Names of the package loggers used throughout the module
const (
	LoggerRPC       = "rpc"
	LoggerTransport = "transport/rpc"
)

// LogOutput is where every package logger writes. It is stderr so that results
// printed on stdout stay machine readable.
var LogOutput io.Writer = os.Stderr

// --------------------------------------------------------------------------
// Line Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

var levelLabels = map[logger.LogLevel]string{
	logger.CRITICAL: "CRIT",
	logger.ERROR:    "ERROR",
	logger.WARNING:  "WARN",
	logger.INFO:     "INFO",
	logger.DEBUG:    "DEBUG",
}

// lineLogger writes one "LEVEL | name | message" line per entry
type lineLogger struct {
	name  string
	level logger.LogLevel
	out   *log.Logger
}

// NewLogger returns a logger for pkgName writing to w at level INFO
func NewLogger(pkgName string, w io.Writer) logger.ILogger {
	return &lineLogger{
		name:  pkgName,
		level: logger.INFO,
		out:   log.New(w, "", log.Ldate|log.Ltime),
	}
}

// CreateLogger implements dragonboats logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	return NewLogger(pkgName, LogOutput)
}

func (l *lineLogger) SetLevel(level logger.LogLevel) { l.level = level }

func (l *lineLogger) Debugf(format string, args ...interface{}) {
	l.logf(logger.DEBUG, format, args...)
}

func (l *lineLogger) Infof(format string, args ...interface{}) {
	l.logf(logger.INFO, format, args...)
}

func (l *lineLogger) Warningf(format string, args ...interface{}) {
	l.logf(logger.WARNING, format, args...)
}

func (l *lineLogger) Errorf(format string, args ...interface{}) {
	l.logf(logger.ERROR, format, args...)
}

// Panicf always panics, the message is logged first if CRITICAL is enabled
func (l *lineLogger) Panicf(format string, args ...interface{}) {
	l.logf(logger.CRITICAL, format, args...)
	panic(fmt.Sprintf(format, args...))
}

func (l *lineLogger) logf(level logger.LogLevel, format string, args ...interface{}) {
	if l.level < level {
		return
	}
	l.out.Printf("%-5s | %-15s | %s", levelLabels[level], l.name, fmt.Sprintf(format, args...))
}

// --------------------------------------------------------------------------
// Levels
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// InitLoggers installs the custom logger factory and sets the level of all package loggers.
// Call it once at startup, before the first message is logged.
func InitLoggers(level string) error {
	lvl, err := ParseLogLevel(level)
	if err != nil {
		return err
	}

	logger.SetLoggerFactory(CreateLogger)

	logger.GetLogger(LoggerRPC).SetLevel(lvl)
	logger.GetLogger(LoggerTransport).SetLevel(lvl)
	return nil
}
