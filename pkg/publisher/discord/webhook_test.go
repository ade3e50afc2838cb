package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

func sampleResult() *models.ScanResult {
	preferred := models.WorkflowInfo{ID: "1", Name: "support-bot", Active: true, ChatModelUsed: "OR", Key: "prod", ModelUsed: "gpt-4"}
	other := models.WorkflowInfo{ID: "2", Name: "summarizer", ChatModelUsed: "OpenAI", Key: "None", ModelUsed: "Dynamic"}
	return &models.ScanResult{
		Preferred: []models.WorkflowInfo{preferred},
		Other:     []models.WorkflowInfo{other},
		All:       []models.WorkflowInfo{preferred, other},
	}
}

func TestWebhookPublisher_PublishScanResult(t *testing.T) {
	var payload webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p := NewWebhookPublisher(server.URL, "https://n8n.example.com")
	require.NoError(t, p.PublishScanResult(context.Background(), sampleResult()))

	require.Len(t, payload.Embeds, 2)
	assert.Equal(t, "1 (50.0%)", payload.Embeds[0].Fields[1].Value)
	require.Len(t, payload.Embeds[1].Fields, 1)
	assert.Equal(t, "2 (inactive)", payload.Embeds[1].Fields[0].Name)
	assert.Contains(t, payload.Embeds[1].Fields[0].Value, "[summarizer](https://n8n.example.com/workflow/2)")
}

func TestWebhookPublisherErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewWebhookPublisher(server.URL, "").PublishScanResult(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")

	err = NewWebhookPublisher("", "").PublishScanResult(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestCreateEmbedsCapsFields(t *testing.T) {
	result := &models.ScanResult{}
	for i := 0; i < 40; i++ {
		result.Other = append(result.Other, models.WorkflowInfo{ID: fmt.Sprint(i), Active: true})
	}

	embeds := NewWebhookPublisher("http://unused", "").createEmbeds(result)
	require.Len(t, embeds, 2)
	require.Len(t, embeds[1].Fields, maxEmbedFields)
	assert.Equal(t, "16 more workflows", embeds[1].Fields[maxEmbedFields-1].Value)
}

func TestCreateEmbedsWithoutOtherModels(t *testing.T) {
	result := sampleResult()
	result.Other = nil
	assert.Len(t, NewWebhookPublisher("http://unused", "").createEmbeds(result), 1)
}
