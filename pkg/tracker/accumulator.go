package tracker

import "github.com/younsl/n8n-model-tracker/pkg/models"

// Accumulator deduplicates workflows by ID across batches. A later version of
// a workflow replaces the earlier one but keeps its original position.
type Accumulator struct {
	byID  map[string]models.Workflow
	order []string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{byID: make(map[string]models.Workflow)}
}

// Add merges a batch and returns the number of workflows it added or
// replaced. Workflows without an ID are skipped.
func (a *Accumulator) Add(batch []models.Workflow) int {
	merged := 0
	for _, wf := range batch {
		if wf.ID == "" {
			continue
		}
		if _, seen := a.byID[wf.ID]; !seen {
			a.order = append(a.order, wf.ID)
		}
		a.byID[wf.ID] = wf
		merged++
	}
	return merged
}

// Workflows returns a snapshot of the accumulated workflows.
func (a *Accumulator) Workflows() []models.Workflow {
	out := make([]models.Workflow, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

func (a *Accumulator) Len() int {
	return len(a.order)
}

func (a *Accumulator) Reset() {
	a.byID = make(map[string]models.Workflow)
	a.order = nil
}
