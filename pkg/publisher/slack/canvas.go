package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

const (
	slackAPIBaseURL            = "https://slack.com/api"
	canvasEditEndpoint         = "/canvases.edit"
	canvasOperationReplace     = "replace"
	canvasDocumentTypeMarkdown = "markdown"
	canvasTitle                = "n8n Chat Model Usage"
	publisherName              = "slack-canvas"

	// Retry constants
	maxRetries                = 3
	initialBackoff            = 1 * time.Second
	backoffFactor             = 2.0
	httpStatusTooManyRequests = 429
)

type CanvasPublisher struct {
	httpClient *http.Client
	baseURL    string
	channelID  string
	apiToken   string
	canvasID   string
	n8nBaseURL string
	backoff    time.Duration
}

func NewCanvasPublisher(token, channelID, canvasID, n8nBaseURL string) *CanvasPublisher {
	return &CanvasPublisher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    slackAPIBaseURL,
		channelID:  channelID,
		apiToken:   token,
		canvasID:   canvasID,
		n8nBaseURL: n8nBaseURL,
		backoff:    initialBackoff,
	}
}

func (c *CanvasPublisher) PublishScanResult(ctx context.Context, result *models.ScanResult) error {
	if result == nil {
		return fmt.Errorf("cannot publish nil scan result")
	}

	logrus.WithFields(logrus.Fields{
		"workflowCount": result.TotalWorkflows(),
		"canvasID":      c.canvasID,
	}).Info("Starting Canvas publication process")

	if c.apiToken == "" {
		return fmt.Errorf("invalid configuration: missing Slack API token")
	}
	if !strings.HasPrefix(c.apiToken, "xoxb-") {
		return fmt.Errorf("invalid configuration: Slack API token must start with 'xoxb-'")
	}
	if c.channelID == "" {
		return fmt.Errorf("invalid configuration: missing Slack channel ID")
	}
	if c.canvasID == "" {
		return fmt.Errorf("invalid configuration: missing Canvas ID")
	}

	blocks := c.createCanvasBlocks(result, time.Now())
	logrus.WithFields(logrus.Fields{
		"blockCount": len(blocks),
		"canvasID":   c.canvasID,
	}).Debug("Generated Canvas blocks")

	if err := c.updateCanvas(ctx, convertBlocksToMarkdown(blocks)); err != nil {
		return err
	}

	logrus.WithField("canvasID", c.canvasID).Info("Successfully updated Canvas content")
	return nil
}

func (c *CanvasPublisher) updateCanvas(ctx context.Context, markdown string) error {
	logrus.WithField("markdown", markdown).Debug("Generated Markdown Content for Canvas")

	url := c.baseURL + canvasEditEndpoint

	payload := map[string]interface{}{
		"canvas_id": c.canvasID,
		"changes": []map[string]interface{}{
			{
				"operation": canvasOperationReplace,
				"document_content": map[string]interface{}{
					"type":     canvasDocumentTypeMarkdown,
					"markdown": markdown,
				},
			},
		},
	}

	var lastErr error
	currentBackoff := c.backoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logrus.Warnf("Retrying canvas update for canvas %s (attempt %d/%d) after error: %v", c.canvasID, attempt, maxRetries, lastErr)
			select {
			case <-time.After(currentBackoff):
			case <-ctx.Done():
				return fmt.Errorf("canvas update retry sleep cancelled or timed out (attempt %d): %w", attempt, ctx.Err())
			}
			currentBackoff = time.Duration(float64(currentBackoff) * backoffFactor)
		}

		bodyReader, err := jsonBody(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal canvas update payload for canvas %s: %w", c.canvasID, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create HTTP request for canvas update (%s): %w", url, err)
		}
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("canvas update cancelled or timed out (attempt %d): %w", attempt, ctx.Err())
			}
			lastErr = fmt.Errorf("network error on attempt %d updating canvas %s: %w", attempt, c.canvasID, err)
			logrus.WithError(lastErr).Warn("Network error during canvas update")
			continue // Retry on network error
		}

		statusCode := resp.StatusCode
		respBodyBytes, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			return fmt.Errorf("failed to read response body on attempt %d for canvas update %s: %w", attempt, c.canvasID, readErr)
		}

		logrus.WithFields(logrus.Fields{
			"statusCode": statusCode,
			"attempt":    attempt,
			"canvasID":   c.canvasID,
		}).Debug("Canvas update API response received")

		if statusCode == httpStatusTooManyRequests {
			waitDuration := currentBackoff
			if retryAfterSec, parseErr := strconv.Atoi(resp.Header.Get("Retry-After")); parseErr == nil && retryAfterSec > 0 {
				waitDuration = time.Duration(retryAfterSec) * time.Second
			}
			logrus.Warnf("Rate limited on canvas update (attempt %d). Retrying after %v.", attempt, waitDuration)
			lastErr = fmt.Errorf("rate limited (status 429) on attempt %d updating canvas %s", attempt, c.canvasID)
			select {
			case <-time.After(waitDuration):
			case <-ctx.Done():
				return fmt.Errorf("canvas update rate limit wait cancelled or timed out (attempt %d): %w", attempt, ctx.Err())
			}
			continue
		}

		if statusCode >= 500 {
			lastErr = fmt.Errorf("server error (status %d) on attempt %d updating canvas %s: %s", statusCode, attempt, c.canvasID, string(respBodyBytes))
			logrus.WithError(lastErr).Warn("Server error during canvas update")
			continue
		}

		if statusCode >= 400 {
			lastErr = fmt.Errorf("client error (status %d) on attempt %d updating canvas %s: %s", statusCode, attempt, c.canvasID, string(respBodyBytes))
			logrus.WithError(lastErr).Error("Client error during canvas update")
			return lastErr // Do not retry client errors
		}

		var result slack.SlackResponse
		if err := json.Unmarshal(respBodyBytes, &result); err != nil {
			return fmt.Errorf("failed to decode response body (status %d) for canvas update %s: %w, body: %s", statusCode, c.canvasID, err, string(respBodyBytes))
		}
		if !result.Ok {
			return fmt.Errorf("slack API error (ok=false) updating canvas %s: %s", c.canvasID, result.Error)
		}

		logrus.Infof("Successfully updated canvas %s on attempt %d", c.canvasID, attempt)
		return nil
	}

	logrus.Errorf("Canvas update failed after %d attempts for canvas %s. Last error: %v", maxRetries+1, c.canvasID, lastErr)
	return fmt.Errorf("canvas update failed after %d attempts for canvas %s: %w", maxRetries+1, c.canvasID, lastErr)
}

// convertBlocksToMarkdown flattens the header and section blocks into canvas
// markdown, in block order.
func convertBlocksToMarkdown(blocks []slack.Block) string {
	var markdown strings.Builder

	for _, block := range blocks {
		switch b := block.(type) {
		case *slack.HeaderBlock:
			if b.Text != nil {
				markdown.WriteString("# " + b.Text.Text + "\n\n")
			}
		case *slack.SectionBlock:
			if b.Text != nil {
				markdown.WriteString(b.Text.Text)
				markdown.WriteString("\n\n")
			}
		}
	}

	return markdown.String()
}

func jsonBody(v interface{}) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data to JSON: %w", err)
	}
	return bytes.NewBuffer(data), nil
}

// createCanvasBlocks lists the preferred and other categories. The full
// workflow list only appears as a count; the canvas is meant for the
// chat model migration, not as an inventory.
func (c *CanvasPublisher) createCanvasBlocks(result *models.ScanResult, now time.Time) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, canvasTitle, false, false)),
		slack.NewDividerBlock(),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, summaryText(result, now), false, false),
			nil, nil,
		),
		slack.NewDividerBlock(),
	}

	blocks = append(blocks, c.categoryBlocks("Workflows Using OpenRouter", result.Preferred)...)
	blocks = append(blocks, c.categoryBlocks("Workflows Using Other Chat Models", result.Other)...)
	return blocks
}

func (c *CanvasPublisher) categoryBlocks(title string, rows []models.WorkflowInfo) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("## %s (%d)", title, len(rows)), false, false),
			nil, nil,
		),
	}
	for i, wf := range rows {
		blocks = append(blocks, c.createWorkflowRow(wf, i))
	}
	return blocks
}

func summaryText(result *models.ScanResult, now time.Time) string {
	return fmt.Sprintf("📊 *Summary*\n"+
		"• Total Workflows: %d\n"+
		"• Using OpenRouter: %d (%.1f%%)\n"+
		"• Using Other Models: %d\n\n"+
		"*Last Updated:* %s by n8n Model Tracker",
		result.TotalWorkflows(),
		len(result.Preferred),
		result.PreferredPercent(),
		len(result.Other),
		now.Format("2006-01-02 15:04:05 MST"))
}

func (c *CanvasPublisher) createWorkflowRow(wf models.WorkflowInfo, index int) slack.Block {
	return slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, workflowMarkdown(wf, index, c.n8nBaseURL), false, false),
		nil,
		nil,
	)
}

// workflowMarkdown renders one workflow as a nested list entry. It is shared
// with the webhook publisher.
func workflowMarkdown(wf models.WorkflowInfo, index int, n8nBaseURL string) string {
	name := wf.Name
	if url := models.WorkflowURL(n8nBaseURL, wf.ID); url != "" {
		name = fmt.Sprintf("<%s|%s>", url, wf.Name)
	}

	status := ":white_circle: inactive"
	if wf.Active {
		status = ":large_green_circle: active"
	}

	var mdText strings.Builder
	mdText.WriteString(fmt.Sprintf("* *[%d]* %s (`%s`)\n", index+1, name, wf.ID))
	mdText.WriteString(fmt.Sprintf("  * *Status:* %s\n", status))
	mdText.WriteString(fmt.Sprintf("  * *Chat Model:* %s\n", wf.ChatModelUsed))
	mdText.WriteString(fmt.Sprintf("  * *Key:* %s\n", wf.Key))
	mdText.WriteString(fmt.Sprintf("  * *Model:* `%s`", wf.ModelUsed))
	return mdText.String()
}

func (c *CanvasPublisher) GetName() string {
	return publisherName
}
