package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandler_WritesMessageAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{NoColor: true}))

	l.With(slog.String("request_id", "req-1")).
		Info("report created", slog.Int("count", 3), slog.Any("error", errors.New("boom")))

	out := buf.String()
	for _, want := range []string{"INFO:", "report created", `"request_id": "req-1"`, `"count": 3`, `"error": "boom"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q does not contain %q", out, want)
		}
	}
}

func TestPrettyHandler_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{
		NoColor:  true,
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelWarn},
	}))

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN: shown") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestPrettyHandler_Group(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewPrettyHandler(&buf, PrettyHandlerOptions{NoColor: true}))

	l.WithGroup("http").Info("request", slog.String("path", "/reports"))

	if !strings.Contains(buf.String(), `"http.path": "/reports"`) {
		t.Fatalf("grouped key missing: %q", buf.String())
	}
}
