package models

import (
	"strings"
	"time"
)

// Workflow is a workflow record as returned by the n8n workflows API.
type Workflow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Nodes  []Node `json:"nodes"`
}

// WorkflowInfo is the derived display row for a single workflow.
type WorkflowInfo struct {
	ID            string `json:"ID"`
	Name          string `json:"Name"`
	Active        bool   `json:"Active"`
	ChatModelUsed string `json:"Chat Model Used"`
	Key           string `json:"Key"`
	ModelUsed     string `json:"Model Used"`
}

type ScanResult struct {
	RunID        string         `json:"runId"`
	Preferred    []WorkflowInfo `json:"preferred"`
	Other        []WorkflowInfo `json:"other"`
	All          []WorkflowInfo `json:"all"`
	Batches      int            `json:"batches"`
	ScanDuration time.Duration  `json:"scanDuration"`
	CompletedAt  time.Time      `json:"completedAt"`
}

// TotalWorkflows returns the number of distinct workflows in the result.
func (r *ScanResult) TotalWorkflows() int {
	if r == nil {
		return 0
	}
	return len(r.All)
}

// PreferredPercent returns the share of workflows using the preferred provider.
func (r *ScanResult) PreferredPercent() float64 {
	total := r.TotalWorkflows()
	if total == 0 {
		return 0
	}
	return float64(len(r.Preferred)) / float64(total) * 100
}

// WorkflowURL returns the editor link for a workflow, or "" when either part
// is unknown.
func WorkflowURL(baseURL, id string) string {
	if baseURL == "" || id == "" {
		return ""
	}
	return strings.TrimRight(baseURL, "/") + "/workflow/" + id
}
