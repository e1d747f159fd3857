package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

// ErrInvalidBodyMetric is returned for measurement entries that fail validation.
var ErrInvalidBodyMetric = errors.New("invalid body metric")

// BodyMetricRequest is a measurement entry as submitted. Date is YYYY-MM-DD
// and defaults to today.
type BodyMetricRequest struct {
	Date   string   `json:"date"`
	Weight *float64 `json:"weight"`
	Chest  *float64 `json:"chest"`
	Waist  *float64 `json:"waist"`
	Hips   *float64 `json:"hips"`
	Arms   *float64 `json:"arms"`
	Legs   *float64 `json:"legs"`
}

// NewBodyMetric validates req: at least one measurement, none negative.
func NewBodyMetric(userID uuid.UUID, req BodyMetricRequest, today time.Time) (*models.BodyMetric, error) {
	date := models.Day(today)
	if req.Date != "" {
		d, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: date %q: %w", ErrInvalidBodyMetric, req.Date, err)
		}
		date = d
	}

	values := map[string]*float64{
		"weight": req.Weight, "chest": req.Chest, "waist": req.Waist,
		"hips": req.Hips, "arms": req.Arms, "legs": req.Legs,
	}
	entered := false
	for name, v := range values {
		if v == nil {
			continue
		}
		if *v < 0 {
			return nil, fmt.Errorf("%w: %s must not be negative", ErrInvalidBodyMetric, name)
		}
		entered = true
	}
	if !entered {
		return nil, fmt.Errorf("%w: enter at least one measurement", ErrInvalidBodyMetric)
	}

	return &models.BodyMetric{
		ID:     uuid.New(),
		UserID: userID,
		Date:   date,
		Weight: req.Weight,
		Chest:  req.Chest,
		Waist:  req.Waist,
		Hips:   req.Hips,
		Arms:   req.Arms,
		Legs:   req.Legs,
	}, nil
}
