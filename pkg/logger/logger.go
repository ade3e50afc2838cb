package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// log is the logrus standard logger, so packages logging through the
// logrus package functions pick up this configuration.
var log = logrus.StandardLogger()

const timestampFormat = "2006-01-02T15:04:05.999Z07:00"

func init() {
	// JSON 포맷터 설정
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
	})

	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

// InitLogger sets the log level and output format ("json" or "text").
func InitLogger(level, format string) error {
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	switch strings.ToLower(format) {
	case "", "json":
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: timestampFormat})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	default:
		return fmt.Errorf("unknown log format: %s", format)
	}

	log.SetLevel(logLevel)
	return nil
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}
