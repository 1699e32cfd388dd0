package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ainaru/internal/models"
)

const serviceColumns = `id, name, duration_minutes, price, is_active, created_at, updated_at`

// GetService returns a service by ID.
func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE id = ?", id)
	return scanService(row)
}

// ListActiveServices returns bookable services ordered by id.
func (db *DB) ListActiveServices(ctx context.Context) ([]models.Service, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT "+serviceColumns+" FROM services WHERE is_active = 1 ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []models.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, *s)
	}
	return services, rows.Err()
}

// CreateService inserts a service and assigns its ID.
func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
		INSERT INTO services (name, duration_minutes, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.Name, s.DurationMinutes, s.Price, s.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}

	s.ID, err = result.LastInsertId()
	return err
}

// UpdateService edits name, duration and price.
func (db *DB) UpdateService(ctx context.Context, s *models.Service) error {
	result, err := db.ExecContext(ctx, `
		UPDATE services SET name = ?, duration_minutes = ?, price = ?, updated_at = ?
		WHERE id = ?`,
		s.Name, s.DurationMinutes, s.Price, time.Now(), s.ID)
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

// DeactivateService hides a service from booking without deleting it;
// existing bookings keep their reference.
func (db *DB) DeactivateService(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `
		UPDATE services SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now(), id)
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

// GetHotel returns a hotel by ID.
func (db *DB) GetHotel(ctx context.Context, id int64) (*models.Hotel, error) {
	var h models.Hotel
	err := db.QueryRowContext(ctx,
		"SELECT id, name FROM hotels WHERE id = ?", id).Scan(&h.ID, &h.Name)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func scanService(row rowScanner) (*models.Service, error) {
	var s models.Service
	err := row.Scan(&s.ID, &s.Name, &s.DurationMinutes, &s.Price,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
