// pkg/publisher/publisher.go
package publisher

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/pkg/models"
	"github.com/younsl/n8n-model-tracker/pkg/publisher/console"
	"github.com/younsl/n8n-model-tracker/pkg/publisher/discord"
	"github.com/younsl/n8n-model-tracker/pkg/publisher/html"
	"github.com/younsl/n8n-model-tracker/pkg/publisher/json"
	"github.com/younsl/n8n-model-tracker/pkg/publisher/slack"
	"golang.org/x/sync/errgroup"
)

// Publisher 인터페이스는 분류 결과를 다양한 대상에 게시하는 기능을 정의합니다
type Publisher interface {
	// PublishScanResult는 분류 결과를 게시하고 오류가 있으면 반환합니다
	PublishScanResult(context.Context, *models.ScanResult) error

	// GetName은 Publisher의 이름을 반환합니다
	GetName() string
}

// Factory는 설정에 따라 적절한 Publisher를 생성합니다
type Factory struct{}

// NewPublisherFactory는 새로운 Factory 인스턴스를 생성합니다
func NewPublisherFactory() *Factory {
	return &Factory{}
}

// CreatePublisher는 설정에 따라 적절한 Publisher를 생성합니다
func (f *Factory) CreatePublisher(publisherType string, config map[string]string) (Publisher, error) {
	switch publisherType {
	case "slack-canvas":
		return slack.NewCanvasPublisher(
			config["slackBotToken"],
			config["slackChannelID"],
			config["slackCanvasID"],
			config["n8nBaseURL"],
		), nil
	case "slack-webhook":
		return slack.NewWebhookPublisher(
			config["slackWebhookURL"],
			config["n8nBaseURL"],
		), nil
	case "discord-webhook":
		return discord.NewWebhookPublisher(
			config["discordWebhookURL"],
			config["n8nBaseURL"],
		), nil
	case "json":
		return json.NewJSONPublisher(
			config["jsonOutputPath"],
		), nil
	case "html":
		return html.NewHTMLPublisher(
			config["htmlOutputPath"],
			config["htmlTemplatePath"],
			config["n8nBaseURL"],
		), nil
	case "console":
		return console.NewConsolePublisher(), nil
	default:
		return nil, fmt.Errorf("unknown publisher type: %s", publisherType)
	}
}

// CreatePublishers builds one publisher per requested type.
func (f *Factory) CreatePublishers(types []string, config map[string]string) ([]Publisher, error) {
	publishers := make([]Publisher, 0, len(types))
	for _, t := range types {
		p, err := f.CreatePublisher(t, config)
		if err != nil {
			return nil, err
		}
		publishers = append(publishers, p)
	}
	return publishers, nil
}

// PublishAll runs every publisher concurrently and returns the first error.
// Console output is written before the others start so it is not interleaved
// with log lines from the network publishers.
func PublishAll(ctx context.Context, result *models.ScanResult, publishers []Publisher) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, p := range publishers {
		if p.GetName() == "console" {
			if err := p.PublishScanResult(ctx, result); err != nil {
				return fmt.Errorf("%s publisher failed: %w", p.GetName(), err)
			}
			continue
		}
		g.Go(func() error {
			logrus.WithField("publisher", p.GetName()).Debug("Publishing scan result")
			if err := p.PublishScanResult(ctx, result); err != nil {
				return fmt.Errorf("%s publisher failed: %w", p.GetName(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
