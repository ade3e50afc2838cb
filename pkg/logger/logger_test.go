package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLoggerInitialization(t *testing.T) {
	defer log.SetLevel(logrus.InfoLevel)

	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel logrus.Level
		wantErr   bool
	}{
		{
			name:      "debug level",
			level:     "DEBUG",
			wantLevel: logrus.DebugLevel,
			wantErr:   false,
		},
		{
			name:      "info level",
			level:     "INFO",
			format:    "json",
			wantLevel: logrus.InfoLevel,
			wantErr:   false,
		},
		{
			name:      "warn level with text format",
			level:     "WARN",
			format:    "text",
			wantLevel: logrus.WarnLevel,
			wantErr:   false,
		},
		{
			name:      "error level",
			level:     "ERROR",
			wantLevel: logrus.ErrorLevel,
			wantErr:   false,
		},
		{
			name:    "invalid level",
			level:   "INVALID",
			wantErr: true,
		},
		{
			name:    "invalid format",
			level:   "INFO",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("InitLogger() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && log.GetLevel() != tt.wantLevel {
				t.Errorf("InitLogger() level = %v, want %v", log.GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestLogWithFields(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stdout)

	if err := InitLogger("INFO", "json"); err != nil {
		t.Fatalf("InitLogger() failed: %v", err)
	}

	testFields := logrus.Fields{
		"key1": "value1",
		"key2": 123,
	}

	WithFields(testFields).Info("test message")

	var output map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Failed to parse log output: %v", err)
	}

	if msg, ok := output["msg"].(string); !ok || msg != "test message" {
		t.Errorf("Log message = %v, want test message", msg)
	}

	if value, ok := output["key1"].(string); !ok || value != "value1" {
		t.Errorf("Field key1 = %v, want value1", value)
	}

	if value, ok := output["key2"].(float64); !ok || int(value) != 123 {
		t.Errorf("Field key2 = %v, want 123", value)
	}
}

func TestPackageLevelLoggingUsesConfiguration(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stdout)

	if err := InitLogger("WARN", "text"); err != nil {
		t.Fatalf("InitLogger() failed: %v", err)
	}
	defer InitLogger("INFO", "json")

	logrus.Info("hidden")
	logrus.Warn("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn message missing from output: %s", out)
	}
}
