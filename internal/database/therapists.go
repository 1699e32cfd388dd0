package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ainaru/internal/models"
)

const therapistColumns = `id, display_name, rating, is_available, schedule, created_at, updated_at`

// GetTherapist returns a therapist by ID.
func (db *DB) GetTherapist(ctx context.Context, id int64) (*models.Therapist, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+therapistColumns+" FROM therapists WHERE id = ?", id)
	return scanTherapist(row)
}

// ListAvailableTherapists returns therapists marked available, highest rating
// first with lowest id breaking ties. The ordering is what makes
// best-therapist selection deterministic.
func (db *DB) ListAvailableTherapists(ctx context.Context) ([]models.Therapist, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+therapistColumns+` FROM therapists
		WHERE is_available = 1
		ORDER BY rating DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var therapists []models.Therapist
	for rows.Next() {
		t, err := scanTherapist(rows)
		if err != nil {
			return nil, err
		}
		therapists = append(therapists, *t)
	}
	return therapists, rows.Err()
}

// CreateTherapist inserts a therapist and assigns its ID.
func (db *DB) CreateTherapist(ctx context.Context, t *models.Therapist) error {
	schedule, err := t.Schedule.Encode()
	if err != nil {
		return err
	}

	now := time.Now()
	result, err := db.ExecContext(ctx, `
		INSERT INTO therapists (display_name, rating, is_available, schedule, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.DisplayName, t.Rating, t.IsAvailable, schedule, now, now)
	if err != nil {
		return fmt.Errorf("insert therapist: %w", err)
	}

	t.ID, err = result.LastInsertId()
	return err
}

// UpdateTherapistSchedule replaces a therapist's weekly working schedule.
func (db *DB) UpdateTherapistSchedule(ctx context.Context, id int64, ws models.WorkingSchedule) error {
	schedule, err := ws.Encode()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE therapists SET schedule = ?, updated_at = ? WHERE id = ?`,
		schedule, time.Now(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTherapistAvailable flips the availability flag.
func (db *DB) SetTherapistAvailable(ctx context.Context, id int64, available bool) error {
	result, err := db.ExecContext(ctx, `
		UPDATE therapists SET is_available = ?, updated_at = ? WHERE id = ?`,
		available, time.Now(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTherapist(row rowScanner) (*models.Therapist, error) {
	var t models.Therapist
	var schedule sql.NullString

	err := row.Scan(&t.ID, &t.DisplayName, &t.Rating, &t.IsAvailable,
		&schedule, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	t.Schedule, err = models.ParseWorkingSchedule(schedule.String)
	if err != nil {
		return nil, fmt.Errorf("therapist %d: %w", t.ID, err)
	}
	return &t, nil
}
