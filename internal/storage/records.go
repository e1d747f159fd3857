package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/fittrack/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RaiseRecord inserts rec, or replaces the stored record for the same
// (user, exercise, record type) key when rec.Value is strictly greater.
// Reports whether a row was written and the id of the stored row, which is
// the existing id when a record is replaced.
func (db *DB) RaiseRecord(ctx context.Context, rec models.PersonalRecord) (uuid.UUID, bool, error) {
	var id uuid.UUID
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO personal_records (id, user_id, exercise_id, record_type, value, date, workout_id)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id, exercise_id, record_type) DO UPDATE
		 SET value = EXCLUDED.value, date = EXCLUDED.date, workout_id = EXCLUDED.workout_id, created_at = NOW()
		 WHERE personal_records.value < EXCLUDED.value
		 RETURNING id`,
		rec.ID, rec.UserID, rec.ExerciseID, rec.RecordType, rec.Value, rec.Date, rec.WorkoutID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("raising %s record: %w", rec.RecordType, err)
	}
	return id, true, nil
}

// ListRecords returns the user's records, newest first, optionally for one exercise.
func (db *DB) ListRecords(ctx context.Context, userID uuid.UUID, exerciseID *uuid.UUID) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT pr.id, pr.user_id, pr.exercise_id, e.name, pr.record_type, pr.value, pr.date, pr.workout_id, pr.created_at
		 FROM personal_records pr
		 JOIN exercises e ON e.id = pr.exercise_id
		 WHERE pr.user_id = $1 AND ($2::uuid IS NULL OR pr.exercise_id = $2)
		 ORDER BY pr.date DESC, pr.created_at DESC`, userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// RecentRecords returns the user's latest records.
func (db *DB) RecentRecords(ctx context.Context, userID uuid.UUID, limit int) ([]models.PersonalRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT pr.id, pr.user_id, pr.exercise_id, e.name, pr.record_type, pr.value, pr.date, pr.workout_id, pr.created_at
		 FROM personal_records pr
		 JOIN exercises e ON e.id = pr.exercise_id
		 WHERE pr.user_id = $1
		 ORDER BY pr.date DESC, pr.created_at DESC
		 LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]models.PersonalRecord, error) {
	result := []models.PersonalRecord{}
	for rows.Next() {
		var r models.PersonalRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.ExerciseID, &r.ExerciseName, &r.RecordType,
			&r.Value, &r.Date, &r.WorkoutID, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
