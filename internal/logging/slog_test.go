package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func textLogger() (*SlogLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return NewSlogLogger(slog.New(h)), &buf
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		log  func(Logger)
		want []string
	}{
		{"debug", func(l Logger) { l.Debug(ctx, "refresh scheduled", "in", "55m0s") }, []string{"level=DEBUG", `msg="refresh scheduled"`, "in=55m0s"}},
		{"info", func(l Logger) { l.Info(ctx, "signed in", "user", "u-1") }, []string{"level=INFO", `msg="signed in"`, "user=u-1"}},
		{"warn", func(l Logger) { l.Warn(ctx, "using cached stores") }, []string{"level=WARN", `msg="using cached stores"`}},
		{"error", func(l Logger) { l.Error(ctx, "profile fetch failed", "attempt", 2) }, []string{"level=ERROR", "attempt=2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := textLogger()
			tt.log(l)
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestSlogLogger_WithCarriesAttributes(t *testing.T) {
	l, buf := textLogger()

	l.With("component", "stores").Info(context.Background(), "ranked", "count", 3)

	for _, s := range []string{"component=stores", "msg=ranked", "count=3"} {
		assert.Contains(t, buf.String(), s)
	}
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().With("k", "v").Error(context.TODO(), "dropped")
	})
}
