package logx

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	savedLevel := GetLevel()
	savedFlags := base.Flags()
	prev := SetOutput(&buf)
	SetFlags(0)
	t.Cleanup(func() {
		SetOutput(prev)
		SetFlags(savedFlags)
		SetLevel(savedLevel.String())
	})
	return &buf
}

func TestInfof_NoDoubleFormattingWithPercent(t *testing.T) {
	buf := captureLog(t)
	SetLevel("info")

	msg := "Available columns: [RA_ICRS DE_ICRS Plx e_Plx Plx/e_Plx 100% complete]"
	Infof(msg)

	out := buf.String()
	if !strings.Contains(out, "100% complete") {
		t.Fatalf("log output missing expected percent segment: %s", out)
	}
	if strings.Contains(out, "%!") {
		t.Fatalf("log output shows fmt artifact: %s", out)
	}
	if !strings.HasPrefix(out, "[INFO] ") {
		t.Fatalf("expected [INFO] prefix, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureLog(t)
	SetLevel("warn")

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Fatalf("messages below warn leaked: %q", out)
	}
	if !strings.Contains(out, "[WARN] warn 3") || !strings.Contains(out, "[ERROR] error 4") {
		t.Fatalf("expected warn and error lines, got %q", out)
	}
}

func TestSetLevelIgnoresUnknown(t *testing.T) {
	captureLog(t)
	SetLevel("error")
	SetLevel("verbose")
	if GetLevel() != LevelError {
		t.Fatalf("unknown level changed state: %v", GetLevel())
	}
	if _, ok := ParseLevel(" Warning "); !ok {
		t.Fatalf("expected 'Warning' to parse")
	}
}

func TestTimeTrackDebugOnly(t *testing.T) {
	buf := captureLog(t)
	SetLevel("info")
	TimeTrack(time.Now(), "fetch M53")
	if buf.Len() != 0 {
		t.Fatalf("TimeTrack should be silent at info, got %q", buf.String())
	}
	SetLevel("debug")
	TimeTrack(time.Now(), "fetch M53")
	if !strings.Contains(buf.String(), "[DEBUG] fetch M53 took") {
		t.Fatalf("expected debug timing line, got %q", buf.String())
	}
}

func TestSetOutputReturnsPrevious(t *testing.T) {
	first := captureLog(t)
	SetLevel("info")
	var second bytes.Buffer
	prev := SetOutput(&second)
	Infof("to second")
	if got := SetOutput(prev); got != &second {
		t.Fatalf("SetOutput returned %v, want the second buffer", got)
	}
	Infof("back to first")
	if !strings.Contains(second.String(), "to second") || strings.Contains(second.String(), "back to first") {
		t.Fatalf("second buffer = %q", second.String())
	}
	if !strings.Contains(first.String(), "back to first") {
		t.Fatalf("first buffer = %q", first.String())
	}
}
