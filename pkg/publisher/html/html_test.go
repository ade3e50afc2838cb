package html

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

func sampleResult() *models.ScanResult {
	preferred := models.WorkflowInfo{ID: "7", Name: "Support <Bot>", Active: true, ChatModelUsed: "OR", Key: "prod", ModelUsed: "gpt-4"}
	other := models.WorkflowInfo{ID: "8", Name: "Summaries", ChatModelUsed: "OpenAI", Key: "None", ModelUsed: "Dynamic"}
	return &models.ScanResult{
		RunID:     "run-1",
		Preferred: []models.WorkflowInfo{preferred},
		Other:     []models.WorkflowInfo{other},
		All:       []models.WorkflowInfo{preferred, other},
	}
}

func TestHTMLPublisherDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "index.html")
	p := NewHTMLPublisher(path, "", "https://n8n.example.com/")

	require.NoError(t, p.PublishScanResult(context.Background(), sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)

	assert.Contains(t, out, "Workflows Using OpenRouter (1)")
	assert.Contains(t, out, "Workflows Using Other Chat Models (1)")
	assert.Contains(t, out, "All Workflows (2)")
	assert.Contains(t, out, `href="https://n8n.example.com/workflow/7"`)
	assert.Contains(t, out, "Support &lt;Bot&gt;")
	assert.Contains(t, out, "50.0%")
}

func TestHTMLPublisherWithoutBaseURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.html")
	p := NewHTMLPublisher(path, "", "")

	require.NoError(t, p.PublishScanResult(context.Background(), sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/workflow/")
}

func TestHTMLPublisherCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "custom.html")
	require.NoError(t, os.WriteFile(tmplPath, []byte(`total={{ .Result.TotalWorkflows }} url={{ workflowURL "1" }}`), 0o600))

	out := filepath.Join(dir, "out.html")
	p := NewHTMLPublisher(out, tmplPath, "https://n8n.example.com")
	require.NoError(t, p.PublishScanResult(context.Background(), sampleResult()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "total=2 url=https://n8n.example.com/workflow/1", string(data))
}

func TestHTMLPublisherErrors(t *testing.T) {
	assert.Error(t, NewHTMLPublisher("", "", "").PublishScanResult(context.Background(), sampleResult()))

	out := filepath.Join(t.TempDir(), "out.html")
	assert.Error(t, NewHTMLPublisher(out, "/nonexistent/template.html", "").PublishScanResult(context.Background(), sampleResult()))
	assert.Error(t, NewHTMLPublisher(out, "", "").PublishScanResult(context.Background(), nil))
	assert.Equal(t, "html", NewHTMLPublisher(out, "", "").GetName())
}
