package tracker

import (
	"sync"

	"github.com/younsl/n8n-model-tracker/pkg/models"
)

// Cache holds the last successful scan result so views can be rendered
// without fetching again. Invalidate is the refresh trigger.
type Cache struct {
	mu     sync.RWMutex
	result *models.ScanResult
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get() (*models.ScanResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.result, c.result != nil
}

func (c *Cache) Set(result *models.ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = nil
}
