package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

func TestWebhookPublisher_PublishScanResult(t *testing.T) {
	var payload map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewWebhookPublisher(server.URL, "https://n8n.example.com")
	require.NoError(t, p.PublishScanResult(context.Background(), sampleResult()))

	assert.Equal(t, "n8n chat model usage: 1 of 2 workflows use OpenRouter", payload["text"])
	blocks := payload["blocks"].([]interface{})
	assert.Len(t, blocks, 5)
	assert.Equal(t, "header", blocks[0].(map[string]interface{})["type"])
}

func TestWebhookPublisherStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	err := NewWebhookPublisher(server.URL, "").PublishScanResult(context.Background(), sampleResult())
	assert.Error(t, err)
}

func TestWebhookPublisherMissingURL(t *testing.T) {
	err := NewWebhookPublisher("", "").PublishScanResult(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Equal(t, "slack-webhook", NewWebhookPublisher("", "").GetName())
}

func TestWebhookBlocksAreCapped(t *testing.T) {
	result := &models.ScanResult{}
	for i := 0; i < maxWebhookRows+5; i++ {
		wf := models.WorkflowInfo{ID: fmt.Sprint(i), Name: fmt.Sprintf("wf-%d", i)}
		result.Other = append(result.Other, wf)
		result.All = append(result.All, wf)
	}

	blocks := NewWebhookPublisher("http://unused", "").createMessageBlocks(result)

	// header, summary, divider, heading, rows, overflow note
	require.Len(t, blocks, 4+maxWebhookRows+1)
	_, ok := blocks[len(blocks)-1].(*slack.ContextBlock)
	assert.True(t, ok, "last block should note the omitted rows")
}

func TestWebhookBlocksWithoutOtherModels(t *testing.T) {
	result := sampleResult()
	result.Other = nil

	blocks := NewWebhookPublisher("http://unused", "").createMessageBlocks(result)
	require.Len(t, blocks, 4)
	section := blocks[3].(*slack.SectionBlock)
	assert.Contains(t, section.Text.Text, "No workflows use another chat model")
}
