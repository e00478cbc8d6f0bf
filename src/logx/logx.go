// Package logx is the leveled logger shared by the ClusterHR packages and binaries.
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

var currentLevel = int32(LevelInfo)

var (
	mu   sync.RWMutex
	base = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

// ParseLevel maps a level name (debug|info|warn|error) to a Level.
func ParseLevel(s string) (Level, bool) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return l, ok
}

// SetLevel parses and sets the global level. Unknown names are ignored.
func SetLevel(s string) {
	if l, ok := ParseLevel(s); ok {
		atomic.StoreInt32(&currentLevel, int32(l))
	}
}

// GetLevel returns the current global level.
func GetLevel() Level { return Level(atomic.LoadInt32(&currentLevel)) }

// SetOutput redirects log lines to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := base.Writer()
	base.SetOutput(w)
	return prev
}

// SetFlags sets the standard log flags of the underlying logger.
func SetFlags(flags int) {
	mu.Lock()
	defer mu.Unlock()
	base.SetFlags(flags)
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func logf(l Level, format string, args ...interface{}) {
	if GetLevel() > l {
		return
	}
	msg := format
	// without args the message is printed verbatim ("Plx/e_Plx", "100%")
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	mu.RLock()
	defer mu.RUnlock()
	base.Printf("[%s] %s", l, msg)
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// TimeTrack logs the time spent in a phase at debug level.
// Usage: defer logx.TimeTrack(time.Now(), "fetch M53")
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
