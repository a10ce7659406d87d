package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevels(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		log        func()
		wantInLog  string
		wantHidden string
	}{
		{
			name:       "info hides debug",
			level:      "info",
			log:        func() { Debugf("hidden %s", "message"); Infof("visible %s", "message") },
			wantInLog:  "visible message",
			wantHidden: "hidden message",
		},
		{
			name:      "debug shows debug",
			level:     "debug",
			log:       func() { Debug("debug line", Fields{"dataset": "abc"}) },
			wantInLog: "dataset=abc",
		},
		{
			name:      "unknown level falls back to info",
			level:     "bogus",
			log:       func() { Warnf("warned") },
			wantInLog: "warned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetTestOutput(&buf)
			defer UnsetTestOutput()
			InitLogger(tt.level)

			tt.log()

			out := buf.String()
			assert.Contains(t, out, tt.wantInLog)
			if tt.wantHidden != "" {
				assert.NotContains(t, out, tt.wantHidden)
			}
		})
	}
}

func TestErrorWithFields(t *testing.T) {
	var buf bytes.Buffer
	SetTestOutput(&buf)
	defer UnsetTestOutput()
	InitLogger("error")

	Error("fetch failed", Fields{"status": 502})
	assert.Contains(t, buf.String(), "status=502")
}
