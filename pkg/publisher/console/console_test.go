package console

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

func TestConsolePublisher_PublishScanResult(t *testing.T) {
	var buf bytes.Buffer
	publisher := NewConsolePublisherWithWriter(&buf)

	// 테스트 데이터 생성
	row := models.WorkflowInfo{
		ID:            "wf-1",
		Name:          "support-bot",
		Active:        true,
		ChatModelUsed: "OpenRouter Chat Model",
		Key:           "openrouter-prod",
		ModelUsed:     "openai/gpt-4o",
	}
	result := &models.ScanResult{
		Preferred: []models.WorkflowInfo{row},
		All:       []models.WorkflowInfo{row},
	}

	// 출력 테스트
	err := publisher.PublishScanResult(context.Background(), result)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "support-bot")
	assert.Contains(t, buf.String(), "Using OpenRouter: 1 (100.0%)")

	// nil 결과 테스트
	err = publisher.PublishScanResult(context.Background(), nil)
	assert.Error(t, err)

	// GetName 테스트
	assert.Equal(t, "console", publisher.GetName())
}
