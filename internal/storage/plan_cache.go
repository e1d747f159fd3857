package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/coocood/freecache"
	"github.com/google/uuid"
)

const (
	megabyte        = 1024 * 1024
	catalogCacheKey = "plans::catalog"
)

// PlanCatalogCache keeps serialized system plans in memory. System plans
// only change through migrations, so entries simply expire after the TTL.
type PlanCatalogCache struct {
	cache  *freecache.Cache
	expire int
	log    *slog.Logger
}

// NewPlanCatalogCache allocates a cache of sizeMB megabytes whose entries live for ttl.
func NewPlanCatalogCache(sizeMB int, ttl time.Duration, log *slog.Logger) *PlanCatalogCache {
	return &PlanCatalogCache{
		cache:  freecache.NewCache(max(sizeMB, 1) * megabyte),
		expire: max(int(ttl.Seconds()), 1),
		log:    log,
	}
}

// Catalog returns the cached plan list.
func (c *PlanCatalogCache) Catalog() ([]models.WorkoutPlan, bool) {
	var plans []models.WorkoutPlan
	if !c.get(catalogCacheKey, &plans) {
		return nil, false
	}
	return plans, true
}

// SetCatalog caches the plan list.
func (c *PlanCatalogCache) SetCatalog(plans []models.WorkoutPlan) {
	c.set(catalogCacheKey, plans)
}

// Plan returns a cached plan detail.
func (c *PlanCatalogCache) Plan(id uuid.UUID) (*models.WorkoutPlan, bool) {
	var p models.WorkoutPlan
	if !c.get(planKey(id), &p) {
		return nil, false
	}
	return &p, true
}

// SetPlan caches a plan detail.
func (c *PlanCatalogCache) SetPlan(p *models.WorkoutPlan) {
	c.set(planKey(p.ID), p)
}

func planKey(id uuid.UUID) string {
	return fmt.Sprintf("plans::%s", id)
}

func (c *PlanCatalogCache) get(key string, v any) bool {
	b, err := c.cache.Get([]byte(key))
	if err != nil {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		c.log.Error("decoding cached plans", "key", key, "error", err)
		c.cache.Del([]byte(key))
		return false
	}
	return true
}

func (c *PlanCatalogCache) set(key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Error("encoding plans for cache", "key", key, "error", err)
		return
	}
	if err := c.cache.Set([]byte(key), b, c.expire); err != nil {
		c.log.Warn("caching plans", "key", key, "error", err)
	}
}
