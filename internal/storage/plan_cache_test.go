package storage

import (
	"testing"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/testhelpers"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// TestPlanCatalogCache checks plans survive a round trip through the cache,
// including the nil versus empty equipment distinction the scorer relies on.
func TestPlanCatalogCache(t *testing.T) {
	c := NewPlanCatalogCache(1, time.Minute, testhelpers.NewLogger(t))

	if _, ok := c.Catalog(); ok {
		t.Fatal("empty cache reported a catalog")
	}

	catalog := []models.WorkoutPlan{
		{ID: uuid.New(), Name: "Open", DurationWeeks: 4, Frequency: 3, Difficulty: models.Beginner},
		{ID: uuid.New(), Name: "None needed", DurationWeeks: 4, Frequency: 3, EquipmentRequired: []string{}},
		{ID: uuid.New(), Name: "Barbell", DurationWeeks: 8, Frequency: 3, EquipmentRequired: []string{"Barbell"}},
	}
	c.SetCatalog(catalog)

	got, ok := c.Catalog()
	if !ok {
		t.Fatal("catalog not cached")
	}
	if diff := cmp.Diff(catalog, got); diff != "" {
		t.Errorf("catalog mismatch (-want +got):\n%s", diff)
	}
	if got[0].EquipmentRequired != nil {
		t.Error("nil equipment became non-nil")
	}
	if got[1].EquipmentRequired == nil {
		t.Error("empty equipment became nil")
	}
}

// TestPlanCatalogCachePlan checks per-plan entries are keyed by id.
func TestPlanCatalogCachePlan(t *testing.T) {
	c := NewPlanCatalogCache(1, time.Minute, testhelpers.NewLogger(t))
	p := &models.WorkoutPlan{
		ID:   uuid.New(),
		Name: "Split",
		Workouts: []models.PlanWorkout{
			{ID: uuid.New(), WeekNumber: 1, DayNumber: 1, TemplateID: uuid.New(), TemplateName: "Upper"},
		},
	}
	c.SetPlan(p)

	got, ok := c.Plan(p.ID)
	if !ok {
		t.Fatal("plan not cached")
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	if _, ok := c.Plan(uuid.New()); ok {
		t.Error("unknown plan reported as cached")
	}
}
