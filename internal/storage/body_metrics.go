package storage

import (
	"context"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
)

// InsertBodyMetric stores one measurement entry.
func (db *DB) InsertBodyMetric(ctx context.Context, m models.BodyMetric) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO body_metrics (id, user_id, date, weight, chest, waist, hips, arms, legs)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.ID, m.UserID, m.Date, m.Weight, m.Chest, m.Waist, m.Hips, m.Arms, m.Legs)
	if err != nil {
		return fmt.Errorf("inserting body metric: %w", err)
	}
	return nil
}

// ListBodyMetrics returns the user's measurements, newest first.
func (db *DB) ListBodyMetrics(ctx context.Context, userID uuid.UUID) ([]models.BodyMetric, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, user_id, date, weight, chest, waist, hips, arms, legs
		 FROM body_metrics
		 WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying body metrics: %w", err)
	}
	defer rows.Close()

	result := []models.BodyMetric{}
	for rows.Next() {
		var m models.BodyMetric
		if err := rows.Scan(&m.ID, &m.UserID, &m.Date, &m.Weight, &m.Chest, &m.Waist, &m.Hips, &m.Arms, &m.Legs); err != nil {
			return nil, fmt.Errorf("scanning body metric: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
