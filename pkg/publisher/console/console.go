package console

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/pkg/models"
	"github.com/younsl/n8n-model-tracker/pkg/reporter"
)

// ConsolePublisher는 분류 결과를 콘솔에 출력하는 Publisher입니다
type ConsolePublisher struct {
	reporter *reporter.Reporter
}

// NewConsolePublisher는 새로운 ConsolePublisher 인스턴스를 생성합니다
func NewConsolePublisher() *ConsolePublisher {
	return NewConsolePublisherWithWriter(os.Stdout)
}

func NewConsolePublisherWithWriter(out io.Writer) *ConsolePublisher {
	return &ConsolePublisher{
		reporter: reporter.NewReporterWithWriter(&reporter.ConsoleFormatter{}, out),
	}
}

// PublishScanResult는 분류 결과를 콘솔에 출력합니다
func (c *ConsolePublisher) PublishScanResult(_ context.Context, result *models.ScanResult) error {
	logrus.Info("Publishing scan results to console")

	if result == nil {
		return fmt.Errorf("cannot publish nil scan result")
	}

	if err := c.reporter.GenerateReport(result); err != nil {
		return err
	}

	logrus.Info("Successfully published scan results to console")
	return nil
}

// GetName은 Publisher의 이름을 반환합니다
func (c *ConsolePublisher) GetName() string {
	return "console"
}
