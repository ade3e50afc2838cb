package json

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/younsl/n8n-model-tracker/pkg/models"
)

type JSONPublisher struct {
	outputPath string // 빈 문자열이면 stdout으로 출력
	stdout     io.Writer
}

// Report is the document written by the publisher.
type Report struct {
	RunID            string                `json:"runId"`
	TotalWorkflows   int                   `json:"totalWorkflows"`
	PreferredCount   int                   `json:"preferredCount"`
	OtherCount       int                   `json:"otherCount"`
	PreferredPercent float64               `json:"preferredPercent"`
	Preferred        []models.WorkflowInfo `json:"preferred"`
	Other            []models.WorkflowInfo `json:"other"`
	All              []models.WorkflowInfo `json:"all"`
	Batches          int                   `json:"batches"`
	DurationSeconds  float64               `json:"durationSeconds"`
	CompletedAt      string                `json:"completedAt,omitempty"`
}

func NewJSONPublisher(outputPath string) *JSONPublisher {
	return &JSONPublisher{
		outputPath: outputPath,
		stdout:     os.Stdout,
	}
}

func NewReport(result *models.ScanResult) Report {
	report := Report{
		RunID:            result.RunID,
		TotalWorkflows:   result.TotalWorkflows(),
		PreferredCount:   len(result.Preferred),
		OtherCount:       len(result.Other),
		PreferredPercent: result.PreferredPercent(),
		Preferred:        nonNil(result.Preferred),
		Other:            nonNil(result.Other),
		All:              nonNil(result.All),
		Batches:          result.Batches,
		DurationSeconds:  result.ScanDuration.Seconds(),
	}
	if !result.CompletedAt.IsZero() {
		report.CompletedAt = result.CompletedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return report
}

func (p *JSONPublisher) PublishScanResult(_ context.Context, result *models.ScanResult) error {
	if result == nil {
		return fmt.Errorf("cannot publish nil scan result")
	}

	data, err := json.MarshalIndent(NewReport(result), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal scan result to JSON: %w", err)
	}

	if p.outputPath == "" {
		// stdout으로 출력
		fmt.Fprintln(p.stdout, string(data))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(p.outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 파일에 저장
	if err := os.WriteFile(p.outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON to file: %w", err)
	}

	return nil
}

func (p *JSONPublisher) GetName() string {
	return "json"
}

func nonNil(rows []models.WorkflowInfo) []models.WorkflowInfo {
	if rows == nil {
		return []models.WorkflowInfo{}
	}
	return rows
}
