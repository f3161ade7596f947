package logger

import (
	"bytes"
	"strings"
	"testing"

	"logsift/internal/config"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

func TestSetupJSONFields(t *testing.T) {
	var buf bytes.Buffer
	Setup(config.Config{ServiceName: "logsift", InstanceID: "run-1", LogLevel: "info"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	zlog.Info().Msg("hello")
	zlog.Debug().Msg("dropped")

	out := buf.String()
	for _, want := range []string{`"service":"logsift"`, `"instance":"run-1"`, `"message":"hello"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}
	if strings.Contains(out, "dropped") {
		t.Errorf("debug message should be filtered at info level: %q", out)
	}
}

func TestSetupInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Setup(config.Config{LogLevel: "loud"}, &buf)
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	if got := zerolog.GlobalLevel(); got != zerolog.InfoLevel {
		t.Errorf("GlobalLevel = %v, want info", got)
	}
}
