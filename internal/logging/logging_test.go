package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	td := []struct {
		in  string
		lvl zerolog.Level
		ok  bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, true},
		{" warning ", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, d := range td {
		lvl, ok := parseLevel(d.in)
		if lvl != d.lvl || ok != d.ok {
			t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", d.in, lvl, ok, d.lvl, d.ok)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:     "error",
		EnvLogTimestamp: "false",
		EnvLogNoColor:   "1",
	}
	cfg := DefaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg, func(k string) string { return env[k] })
	if cfg != (Config{Level: zerolog.ErrorLevel, NoColor: true}) {
		t.Fatalf("bad config %+v", cfg)
	}

	cfg = DefaultConfig(ProfileTest)
	applyEnvOverrides(&cfg, func(k string) string { return "garbage" })
	if cfg != DefaultConfig(ProfileTest) {
		t.Fatalf("invalid values should be ignored: %+v", cfg)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "trace")
	if cfg := FromEnv(ProfileRuntime); cfg.Level != zerolog.TraceLevel {
		t.Fatalf("expected trace level, got %v", cfg.Level)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Config{Level: zerolog.InfoLevel, NoColor: true})
	log.Debug().Msg("hidden")
	log.Info().Str("peripheral", "sink0").Msg("packet received")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatal("debug message should be filtered")
	}
	if !strings.Contains(out, "packet received") || !strings.Contains(out, "peripheral=sink0") {
		t.Fatalf("unexpected output %q", out)
	}
}
