package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLogger_Log(t *testing.T) {
	var buf bytes.Buffer
	logger := New(LevelInfo, &buf)

	tests := []struct {
		name    string
		level   Level
		message string
		fields  Fields
		err     error
		want    bool // should log
	}{
		{
			name:    "info message",
			level:   LevelInfo,
			message: "listing loaded",
			fields:  Fields{"venue": "sala-b1"},
			want:    true,
		},
		{
			name:    "debug below threshold",
			level:   LevelDebug,
			message: "debug message",
			want:    false,
		},
		{
			name:    "error with err",
			level:   LevelError,
			message: "event failed",
			err:     errors.New("navigation failed"),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := buf.Len()

			logger.log(tt.level, tt.message, tt.fields, tt.err)

			logged := buf.Len() > before
			if logged != tt.want {
				t.Errorf("log() logged = %v, want %v", logged, tt.want)
			}
		})
	}
}

func TestLogger_EntryShape(t *testing.T) {
	var buf bytes.Buffer
	New(LevelDebug, &buf).Error("event failed", Fields{"url": "https://x"}, errors.New("boom"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v (line %q)", err, buf.String())
	}
	if entry.Level != "ERROR" || entry.Message != "event failed" || entry.Error != "boom" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Fields["url"] != "https://x" {
		t.Errorf("fields = %v", entry.Fields)
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := New(LevelInfo, &buf)
	child := base.With(Fields{"venue": "duvet", "run": 1})

	child.Info("loaded", Fields{"run": 2})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if entry.Fields["venue"] != "duvet" {
		t.Errorf("venue = %v, want duvet", entry.Fields["venue"])
	}
	if entry.Fields["run"] != float64(2) {
		t.Errorf("run = %v, want entry field to override base", entry.Fields["run"])
	}

	buf.Reset()
	base.Info("plain", nil)
	if strings.Contains(buf.String(), "duvet") {
		t.Error("With() must not modify the parent logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{" INFO ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"Error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		minLevel  Level
		logLevel  Level
		shouldLog bool
	}{
		{"debug logs at debug", LevelDebug, LevelDebug, true},
		{"info logs at debug", LevelDebug, LevelInfo, true},
		{"debug doesn't log at info", LevelInfo, LevelDebug, false},
		{"warn doesn't log at error", LevelError, LevelWarn, false},
		{"error always logs", LevelDebug, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			New(tt.minLevel, &buf).log(tt.logLevel, "test", nil, nil)

			if logged := buf.Len() > 0; logged != tt.shouldLog {
				t.Errorf("shouldLog = %v, want %v", logged, tt.shouldLog)
			}
		})
	}
}

func TestMetrics_Counter(t *testing.T) {
	m := NewMetrics()

	m.IncrCounter("units.ok")
	m.IncrCounter("units.ok")
	m.AddCounter("units.ok", 3)

	if got := m.Counter("units.ok"); got != 5 {
		t.Errorf("Counter = %v, want 5", got)
	}

	counters := m.GetSnapshot()["counters"].(map[string]int64)
	if counters["units.ok"] != 5 {
		t.Errorf("snapshot counter = %v, want 5", counters["units.ok"])
	}
}

func TestMetrics_Gauge(t *testing.T) {
	m := NewMetrics()

	m.SetGauge("venues", 20)
	m.SetGauge("venues", 25)

	gauges := m.GetSnapshot()["gauges"].(map[string]float64)
	if gauges["venues"] != 25 {
		t.Errorf("Gauge = %v, want 25", gauges["venues"])
	}
}

func TestMetrics_Timing(t *testing.T) {
	m := NewMetrics()

	m.RecordTiming("event.load", 100*time.Millisecond)
	m.RecordTiming("event.load", 200*time.Millisecond)
	m.RecordTiming("event.load", 150*time.Millisecond)

	timings := m.GetSnapshot()["timings"].(map[string]map[string]interface{})

	load := timings["event.load"]
	if load["count"].(int) != 3 {
		t.Errorf("Timing count = %v, want 3", load["count"])
	}
	if load["min"].(string) != "100ms" {
		t.Errorf("Min timing = %v, want 100ms", load["min"])
	}
	if load["max"].(string) != "200ms" {
		t.Errorf("Max timing = %v, want 200ms", load["max"])
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	var buf bytes.Buffer
	prev := Default()
	SetDefault(New(LevelDebug, &buf))
	defer SetDefault(prev)

	Debug("test debug", nil)
	Info("test info", Fields{"key": "value"})
	Warn("test warning", nil)
	Error("test error", Fields{"component": "test"}, errors.New("test"))

	if lines := strings.Count(buf.String(), "\n"); lines != 4 {
		t.Errorf("expected 4 lines, got %d", lines)
	}

	IncrCounter("test")
	SetGauge("test", 42.0)
	RecordTiming("test", time.Second)

	if GetMetricsSnapshot() == nil {
		t.Error("GetMetricsSnapshot() returned nil")
	}
	if DefaultMetrics().Counter("test") < 1 {
		t.Error("package-level counter not recorded")
	}
}
