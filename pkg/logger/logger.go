package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Minimal leveled logger shared by the service binaries.
// - zero external deps
// - Init(level) once at startup, then the Debugf/Infof/Warnf/Errorf/Fatalf family

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
	LevelFatal: "fatal",
}

var (
	mu    sync.RWMutex
	out   = log.New(os.Stdout, "", 0)
	level = LevelInfo
)

// Init sets the global log level (case-insensitive: debug, info, warn, error,
// fatal). Unknown values fall back to info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

// SetOutput redirects log output. Tests use this to capture messages.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = log.New(w, "", 0)
}

func logf(l Level, format string, v ...interface{}) {
	mu.RLock()
	enabled := l >= level
	dst := out
	mu.RUnlock()
	if !enabled {
		return
	}
	prefix := fmt.Sprintf("%s [%s] ", time.Now().Format(time.RFC3339), strings.ToUpper(levelNames[l]))
	dst.Printf(prefix+format, v...)
}

func Debugf(format string, v ...interface{}) { logf(LevelDebug, format, v...) }
func Infof(format string, v ...interface{})  { logf(LevelInfo, format, v...) }
func Warnf(format string, v ...interface{})  { logf(LevelWarn, format, v...) }
func Errorf(format string, v ...interface{}) { logf(LevelError, format, v...) }

func Fatalf(format string, v ...interface{}) {
	logf(LevelFatal, format, v...)
	os.Exit(1)
}

// Single-string helpers for brief messages.
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return levelNames[level]
}
