package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/younsl/n8n-model-tracker/pkg/models"
)

const (
	colorGreen  = 3066993
	colorOrange = 15105570

	// Discord limits an embed to 25 fields and a field value to 1024 characters.
	maxEmbedFields = 25
	maxFieldValue  = 1024
)

type WebhookPublisher struct {
	webhookURL string
	n8nBaseURL string
	httpClient *http.Client
}

type webhookPayload struct {
	Content string  `json:"content"`
	Embeds  []embed `json:"embeds"`
}

type embed struct {
	Title  string  `json:"title"`
	Color  int     `json:"color"`
	Fields []field `json:"fields"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
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
		return fmt.Errorf("invalid configuration: missing Discord webhook URL")
	}
	if result == nil {
		return fmt.Errorf("cannot publish nil scan result")
	}

	// 메시지 페이로드 생성
	payload := webhookPayload{
		Content: "n8n Chat Model Usage",
		Embeds:  p.createEmbeds(result),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	// Webhook으로 전송
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook request failed with status: %d", resp.StatusCode)
	}

	return nil
}

func (p *WebhookPublisher) createEmbeds(result *models.ScanResult) []embed {
	summary := embed{
		Title: "Summary",
		Color: colorGreen,
		Fields: []field{
			{Name: "Total Workflows", Value: fmt.Sprintf("%d", result.TotalWorkflows()), Inline: true},
			{Name: "Using OpenRouter", Value: fmt.Sprintf("%d (%.1f%%)", len(result.Preferred), result.PreferredPercent()), Inline: true},
			{Name: "Using Other Models", Value: fmt.Sprintf("%d", len(result.Other)), Inline: true},
		},
	}
	if len(result.Other) == 0 {
		return []embed{summary}
	}

	other := embed{
		Title: "Workflows Using Other Chat Models",
		Color: colorOrange,
	}
	for i, wf := range result.Other {
		if i == maxEmbedFields-1 && len(result.Other) > maxEmbedFields {
			other.Fields = append(other.Fields, field{
				Name:  "More",
				Value: fmt.Sprintf("%d more workflows", len(result.Other)-i),
			})
			break
		}
		other.Fields = append(other.Fields, p.workflowField(wf))
	}
	return []embed{summary, other}
}

func (p *WebhookPublisher) workflowField(wf models.WorkflowInfo) field {
	name := wf.Name
	if url := models.WorkflowURL(p.n8nBaseURL, wf.ID); url != "" {
		name = fmt.Sprintf("[%s](%s)", wf.Name, url)
	}

	value := fmt.Sprintf("%s\nChat Model: %s\nKey: %s\nModel: `%s`", name, wf.ChatModelUsed, wf.Key, wf.ModelUsed)
	if len(value) > maxFieldValue {
		value = value[:maxFieldValue-3] + "..."
	}

	title := wf.ID
	if !wf.Active {
		title += " (inactive)"
	}
	return field{Name: strings.TrimSpace(title), Value: value}
}

func (p *WebhookPublisher) GetName() string {
	return "discord-webhook"
}
