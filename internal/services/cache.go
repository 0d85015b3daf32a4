package services

import (
	"sync"

	"github.com/sonorastudio/backend/internal/models"
)

// ProjectCache sits in front of the database for client-facing project reads.
// Every mutating workflow operation invalidates the entry, so a hit is always
// at least as fresh as the last write that went through this process.
type ProjectCache interface {
	Get(publicID string) (*models.Project, bool)
	Put(publicID string, project *models.Project)
	Invalidate(publicID string)
}

// MemoryProjectCache is a process-local ProjectCache.
type MemoryProjectCache struct {
	mu       sync.RWMutex
	projects map[string]*models.Project
}

func NewMemoryProjectCache() *MemoryProjectCache {
	return &MemoryProjectCache{projects: make(map[string]*models.Project)}
}

func (c *MemoryProjectCache) Get(publicID string) (*models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.projects[publicID]
	return p, ok
}

func (c *MemoryProjectCache) Put(publicID string, project *models.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects[publicID] = project
}

func (c *MemoryProjectCache) Invalidate(publicID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projects, publicID)
}

// nopCache disables caching; used when the host wants every read to hit the
// database.
type nopCache struct{}

func (nopCache) Get(string) (*models.Project, bool) { return nil, false }
func (nopCache) Put(string, *models.Project)        {}
func (nopCache) Invalidate(string)                  {}

// NopProjectCache returns a cache that never hits.
func NopProjectCache() ProjectCache { return nopCache{} }
