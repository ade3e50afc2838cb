package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

// Slack rejects messages with more than 50 blocks.
const maxWebhookRows = 20

type WebhookPublisher struct {
	webhookURL string
	n8nBaseURL string
	httpClient *http.Client
}

func NewWebhookPublisher(webhookURL, n8nBaseURL string) *WebhookPublisher {
	return &WebhookPublisher{
		webhookURL: webhookURL,
		n8nBaseURL: n8nBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *WebhookPublisher) PublishScanResult(ctx context.Context, result *models.ScanResult) error {
	if p.webhookURL == "" {
		return fmt.Errorf("invalid configuration: missing Slack webhook URL")
	}
	if result == nil {
		return fmt.Errorf("cannot publish nil scan result")
	}

	// Slack 메시지 블록 생성
	msg := &slack.WebhookMessage{
		Text:   fmt.Sprintf("n8n chat model usage: %d of %d workflows use OpenRouter", len(result.Preferred), result.TotalWorkflows()),
		Blocks: &slack.Blocks{BlockSet: p.createMessageBlocks(result)},
	}

	// Webhook으로 전송
	if err := slack.PostWebhookCustomHTTPContext(ctx, p.webhookURL, p.httpClient, msg); err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}

	logrus.WithField("blocks", len(msg.Blocks.BlockSet)).Info("Successfully published scan results to Slack webhook")
	return nil
}

// createMessageBlocks lists workflows that still use another chat model,
// since those are the ones to migrate.
func (p *WebhookPublisher) createMessageBlocks(result *models.ScanResult) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, canvasTitle, false, false)),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, summaryText(result, time.Now()), false, false),
			nil, nil,
		),
		slack.NewDividerBlock(),
	}

	if len(result.Other) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, ":tada: No workflows use another chat model.", false, false),
			nil, nil,
		))
		return blocks
	}

	blocks = append(blocks, slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Workflows Using Other Chat Models (%d)*", len(result.Other)), false, false),
		nil, nil,
	))
	for i, wf := range result.Other {
		if i == maxWebhookRows {
			blocks = append(blocks, slack.NewContextBlock("",
				slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("…and %d more", len(result.Other)-maxWebhookRows), false, false),
			))
			break
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, workflowMarkdown(wf, i, p.n8nBaseURL), false, false),
			nil, nil,
		))
	}
	return blocks
}

func (p *WebhookPublisher) GetName() string {
	return "slack-webhook"
}
