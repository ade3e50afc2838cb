// Package tracker drives workflow fetches, accumulating and re-classifying
// workflows after every batch.
package tracker

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/younsl/n8n-model-tracker/pkg/classifier"
	"github.com/younsl/n8n-model-tracker/pkg/fetcher"
	"github.com/younsl/n8n-model-tracker/pkg/metrics"
	"github.com/younsl/n8n-model-tracker/pkg/models"
)

// Source produces workflow batches. *fetcher.Fetcher satisfies it.
type Source interface {
	Fetch(ctx context.Context) iter.Seq[fetcher.Batch]
}

// UpdateFunc receives the classification of everything fetched so far.
type UpdateFunc func(*models.ScanResult)

type Tracker struct {
	source  Source
	metrics *metrics.Recorder
}

// NewTracker creates a Tracker. recorder may be nil.
func NewTracker(source Source, recorder *metrics.Recorder) *Tracker {
	return &Tracker{
		source:  source,
		metrics: recorder,
	}
}

// Run pulls batches until the source is exhausted, calling onUpdate after
// each one. On a fetch error it stops, returning the last partial result
// (nil if no batch arrived) together with the error.
func (t *Tracker) Run(ctx context.Context, onUpdate UpdateFunc) (*models.ScanResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := logrus.WithField("runId", runID)
	log.Info("Starting workflow fetch")

	acc := NewAccumulator()
	var result *models.ScanResult
	batches := 0

	for batch := range t.source.Fetch(ctx) {
		if batch.Err != nil {
			log.WithError(batch.Err).WithField("batches", batches).Error("Workflow fetch failed")
			t.metrics.ObserveRun(time.Since(start), batch.Err)
			return result, fmt.Errorf("workflow fetch failed: %w", batch.Err)
		}

		batches++
		t.metrics.ObserveBatch()
		acc.Add(batch.Workflows)

		result = classifier.ClassifyResult(acc.Workflows())
		result.RunID = runID
		result.Batches = batches
		result.ScanDuration = time.Since(start)
		t.metrics.ObserveResult(result)

		log.WithFields(logrus.Fields{
			"batch":     batches,
			"fetched":   acc.Len(),
			"preferred": len(result.Preferred),
			"other":     len(result.Other),
		}).Infof("Fetched %d workflows...", acc.Len())

		if onUpdate != nil {
			onUpdate(result)
		}
	}

	// Results already handed to onUpdate are never mutated.
	var final models.ScanResult
	if result != nil {
		final = *result
	} else {
		final = *classifier.ClassifyResult(nil)
		final.RunID = runID
		t.metrics.ObserveResult(&final)
	}
	final.ScanDuration = time.Since(start)
	final.CompletedAt = time.Now()
	result = &final
	t.metrics.ObserveRun(result.ScanDuration, nil)

	log.WithFields(logrus.Fields{
		"workflows": result.TotalWorkflows(),
		"batches":   result.Batches,
		"duration":  result.ScanDuration.String(),
	}).Info("Workflow fetch completed")

	return result, nil
}
