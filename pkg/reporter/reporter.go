package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/pkg/models"
	"github.com/younsl/n8n-model-tracker/pkg/version"
)

type ReportFormatter interface {
	FormatReport(*models.ScanResult) string
}

type ConsoleFormatter struct{}

type Reporter struct {
	formatter ReportFormatter
	out       io.Writer
}

// NewReporter creates a reporter writing to stdout.
func NewReporter(formatter ReportFormatter) *Reporter {
	return NewReporterWithWriter(formatter, os.Stdout)
}

func NewReporterWithWriter(formatter ReportFormatter, out io.Writer) *Reporter {
	logrus.Debug("Initializing new reporter")
	return &Reporter{formatter: formatter, out: out}
}

func (r *Reporter) GenerateReport(result *models.ScanResult) error {
	output, err := r.FormatResults(result)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate report")
		return fmt.Errorf("formatting error: %w", err)
	}
	if _, err := io.WriteString(r.out, output); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func (r *Reporter) FormatResults(result *models.ScanResult) (string, error) {
	if result == nil {
		logrus.Error("Received nil scan result")
		return "", fmt.Errorf("cannot format nil result")
	}

	logrus.WithFields(logrus.Fields{
		"workflowCount": result.TotalWorkflows(),
		"scanDuration":  result.ScanDuration,
	}).Debug("Starting to format scan results")

	formatted := r.formatter.FormatReport(result)
	logrus.WithField("formattedLength", len(formatted)).Debug("Successfully formatted results")
	return formatted, nil
}

const rowFormat = "%-3s %-12s %-30s %-6s %-28s %-20s %s\n"

func (f *ConsoleFormatter) FormatReport(result *models.ScanResult) string {
	logrus.Debug("Formatting results for console output")

	if result == nil || result.TotalWorkflows() == 0 {
		return "No workflows found\n"
	}

	buildInfo := version.Get()

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("N8N Model Tracker Build: Version=%s, Commit=%s, Built=%s, Go=%s\n\n",
		buildInfo.Version, buildInfo.GitCommit, buildInfo.BuildDate, buildInfo.GoVersion))

	writeSection(&sb, "Workflows Using OpenRouter", result.Preferred)
	writeSection(&sb, "Workflows Using Other Chat Models", result.Other)
	writeSection(&sb, "All Workflows", result.All)

	sb.WriteString(fmt.Sprintf("Total Workflows: %d | Using OpenRouter: %d (%.1f%%) | Using Other Models: %d\n",
		result.TotalWorkflows(),
		len(result.Preferred),
		result.PreferredPercent(),
		len(result.Other)))
	if result.ScanDuration > 0 {
		sb.WriteString(fmt.Sprintf("Fetched in %s over %d batches\n", formatDuration(result.ScanDuration), result.Batches))
	}
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, rows []models.WorkflowInfo) {
	sb.WriteString(fmt.Sprintf("%s (%d):\n", title, len(rows)))
	if len(rows) == 0 {
		sb.WriteString("  none\n\n")
		return
	}

	sb.WriteString(fmt.Sprintf(rowFormat, "NO", "ID", "NAME", "ACTIVE", "CHAT MODEL", "KEY", "MODEL"))
	for i, wf := range rows {
		sb.WriteString(fmt.Sprintf(rowFormat,
			fmt.Sprintf("%d", i+1),
			truncateString(wf.ID, 12),
			truncateString(wf.Name, 30),
			fmt.Sprintf("%t", wf.Active),
			truncateString(wf.ChatModelUsed, 28),
			truncateString(wf.Key, 20),
			wf.ModelUsed,
		))
	}
	sb.WriteString("\n")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s + strings.Repeat(" ", maxLen-len(s))
	}
	return s[:maxLen-2] + ".."
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
