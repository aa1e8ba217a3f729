package nakama

import (
	"fmt"
	"maps"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logEntry struct {
	level   string
	message string
	fields  map[string]interface{}
}

// recordingLogger is a runtime.Logger that keeps every line for inspection.
type recordingLogger struct {
	entries *[]logEntry
	fields  map[string]interface{}
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{entries: &[]logEntry{}}
}

func (l *recordingLogger) log(level, format string, v ...interface{}) {
	*l.entries = append(*l.entries, logEntry{level: level, message: fmt.Sprintf(format, v...), fields: l.fields})
}

func (l *recordingLogger) Debug(format string, v ...interface{}) { l.log("debug", format, v...) }
func (l *recordingLogger) Info(format string, v ...interface{})  { l.log("info", format, v...) }
func (l *recordingLogger) Warn(format string, v ...interface{})  { l.log("warn", format, v...) }
func (l *recordingLogger) Error(format string, v ...interface{}) { l.log("error", format, v...) }

func (l *recordingLogger) WithField(key string, v interface{}) runtime.Logger {
	return l.WithFields(map[string]interface{}{key: v})
}

func (l *recordingLogger) WithFields(fields map[string]interface{}) runtime.Logger {
	merged := maps.Clone(l.fields)
	if merged == nil {
		merged = map[string]interface{}{}
	}
	maps.Copy(merged, fields)
	return &recordingLogger{entries: l.entries, fields: merged}
}

func (l *recordingLogger) Fields() map[string]interface{} {
	return l.fields
}

func TestZapBridgeLevels(t *testing.T) {
	rec := newRecordingLogger()
	logger := newZapLogger(rec)

	logger.Debug("d")
	logger.Info("100% done")
	logger.Warn("w")
	logger.Error("e")

	want := []string{"debug", "info", "warn", "error"}
	if len(*rec.entries) != len(want) {
		t.Fatalf("entries = %d, want %d", len(*rec.entries), len(want))
	}
	for i, entry := range *rec.entries {
		if entry.level != want[i] {
			t.Fatalf("entry %d level = %s, want %s", i, entry.level, want[i])
		}
		if entry.fields != nil {
			t.Fatalf("entry %d has fields %v", i, entry.fields)
		}
	}
	if got := (*rec.entries)[1].message; got != "100% done" {
		t.Fatalf("message = %q", got)
	}
}

func TestZapBridgeFields(t *testing.T) {
	rec := newRecordingLogger()
	logger := newZapLogger(rec).With(zap.String("match_id", "m1"))

	logger.Info("command accepted", zap.String("command", "PLACE_BID"), zap.Int("bid", 2))

	entries := *rec.entries
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].fields
	if fields["match_id"] != "m1" || fields["command"] != "PLACE_BID" || fields["bid"] != int64(2) {
		t.Fatalf("fields = %v", fields)
	}
}

func TestZapBridgeLevelFilter(t *testing.T) {
	rec := newRecordingLogger()
	logger := zap.New(newRuntimeCore(rec, zapcore.WarnLevel))

	logger.Info("dropped")
	logger.Warn("kept")

	if len(*rec.entries) != 1 || (*rec.entries)[0].message != "kept" {
		t.Fatalf("entries = %+v", *rec.entries)
	}
}
