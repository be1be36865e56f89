package sysutil

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetLogLevel_AllVariants(t *testing.T) {
	orig := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(orig) })

	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"  DeBuG  ", zerolog.DebugLevel}, // case + trim
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel}, // empty -> info
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel}, // alias
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"unknown", zerolog.InfoLevel}, // default
	}

	for _, tc := range cases {
		SetLogLevel(tc.in)
		if got := zerolog.GlobalLevel(); got != tc.want {
			t.Fatalf("SetLogLevel(%q) -> %v; want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsTruthy(t *testing.T) {
	trues := []string{"1", "true", "TRUE", " yes ", "Y", "on", "On"}
	falses := []string{"", "0", "false", "no", "off", "n", "  ", "random"}

	for _, v := range trues {
		if !IsTruthy(v) {
			t.Fatalf("IsTruthy(%q) = false; want true", v)
		}
	}
	for _, v := range falses {
		if IsTruthy(v) {
			t.Fatalf("IsTruthy(%q) = true; want false", v)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	// no args -> ""
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("FirstNonEmpty() = %q; want \"\"", got)
	}
	// only empties -> ""
	if got := FirstNonEmpty(" ", "\t", "\n"); got != "" {
		t.Fatalf("FirstNonEmpty(empties) = %q; want \"\"", got)
	}
	// picks first non-empty (preserves original spacing)
	if got := FirstNonEmpty("   ", "  hello  ", "world"); got != "  hello  " {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "  hello  ")
	}
	// first already non-empty
	if got := FirstNonEmpty("alpha", "beta"); got != "alpha" {
		t.Fatalf("FirstNonEmpty(...) = %q; want %q", got, "alpha")
	}
}

func TestConfigureLogger_JSONAndPretty(t *testing.T) {
	origLevel := zerolog.GlobalLevel()
	origLogger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(origLevel)
		log.Logger = origLogger
	})

	var buf bytes.Buffer
	ConfigureLogger("debug", false, &buf)
	log.Debug().Str("k", "v").Msg("hello")
	if !strings.Contains(buf.String(), `"message":"hello"`) || !strings.Contains(buf.String(), `"k":"v"`) {
		t.Fatalf("expected JSON line, got %q", buf.String())
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("level not applied")
	}

	buf.Reset()
	ConfigureLogger("info", true, &buf)
	log.Info().Msg("pretty")
	if strings.Contains(buf.String(), `"message"`) || !strings.Contains(buf.String(), "pretty") {
		t.Fatalf("expected console output, got %q", buf.String())
	}
}

func TestLogger_PrefersContextLogger(t *testing.T) {
	if Logger(context.Background()) != &log.Logger {
		t.Fatalf("expected global logger without ctx logger")
	}
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	ctx := l.WithContext(context.Background())
	Logger(ctx).Info().Msg("scoped")
	if !strings.Contains(buf.String(), "scoped") {
		t.Fatalf("ctx logger not used: %q", buf.String())
	}
}

func TestRedactEmail(t *testing.T) {
	cases := map[string]string{
		"jane@example.com": "ja***@example.com",
		"jo@example.com":   "***@example.com",
		"not-an-email":     "***@***",
		"trailing@":        "***@***",
	}
	for in, want := range cases {
		if got := RedactEmail(in); got != want {
			t.Fatalf("RedactEmail(%q) = %q; want %q", in, got, want)
		}
	}
}
