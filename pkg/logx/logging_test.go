package logx

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{" info ", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in, zerolog.InfoLevel), "parseLevel(%q)", tt.in)
	}
}

func TestZeroValueLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	assert.True(t, l.IsZero())

	// None of these may panic.
	l.Trace("t")
	l.Debug("d")
	l.Info("i", String("k", "v"), Int("n", 1))
	l.Warn("w", Err(errors.New("e")))
	l.Error("e", Duration("d", time.Second), Bool("b", true), Any("a", struct{}{}))
}

func TestNopLoggerNotZero(t *testing.T) {
	t.Parallel()
	l := Nop()
	assert.False(t, l.IsZero())
	l.Info("discarded")
}

func TestWithAccumulatesFields(t *testing.T) {
	t.Parallel()
	base := Nop()
	derived := base.With(String("a", "1")).With(String("b", "2"))
	assert.Len(t, derived.fields, 2)
	assert.Empty(t, base.fields, "With must not mutate the receiver")
	assert.False(t, derived.IsZero())
}

func TestServiceApplyLevel(t *testing.T) {
	t.Parallel()
	svc, log := New(Config{Level: "warn", Console: true})
	defer svc.Close()

	assert.False(t, log.Enabled(LevelDebug))
	assert.True(t, log.Enabled(LevelWarn))

	// Loggers stay live across Apply.
	svc.Apply(Config{Level: "debug", Console: true})
	assert.True(t, log.Enabled(LevelDebug))
}
