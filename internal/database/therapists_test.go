package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ainaru/internal/models"
)

func TestTherapists(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seed := func(name string, rating float64, available bool) *models.Therapist {
		th := &models.Therapist{
			DisplayName: name,
			Rating:      rating,
			IsAvailable: available,
			Schedule:    models.WorkingSchedule{"tuesday": "10:00-26:00"},
		}
		require.NoError(t, db.CreateTherapist(ctx, th))
		return th
	}

	nok := seed("Nok", 4.8, true)
	seed("Mai", 4.2, true)
	fah := seed("Fah", 4.8, true)
	seed("Ploy", 5.0, false)

	t.Run("GetTherapist", func(t *testing.T) {
		got, err := db.GetTherapist(ctx, nok.ID)
		require.NoError(t, err)
		assert.Equal(t, "Nok", got.DisplayName)
		assert.Equal(t, "10:00-26:00", got.Schedule["tuesday"])

		_, err = db.GetTherapist(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ListAvailableOrdering", func(t *testing.T) {
		got, err := db.ListAvailableTherapists(ctx)
		require.NoError(t, err)
		require.Len(t, got, 3, "unavailable therapists excluded")

		// Highest rating first, id breaking ties.
		assert.Equal(t, nok.ID, got[0].ID)
		assert.Equal(t, fah.ID, got[1].ID)
		assert.Equal(t, "Mai", got[2].DisplayName)
	})

	t.Run("UpdateSchedule", func(t *testing.T) {
		ws := models.WorkingSchedule{"friday": "14:00-22:00"}
		require.NoError(t, db.UpdateTherapistSchedule(ctx, nok.ID, ws))

		got, err := db.GetTherapist(ctx, nok.ID)
		require.NoError(t, err)
		assert.Equal(t, ws, got.Schedule)

		assert.ErrorIs(t, db.UpdateTherapistSchedule(ctx, 9999, ws), ErrNotFound)
	})

	t.Run("SetAvailable", func(t *testing.T) {
		require.NoError(t, db.SetTherapistAvailable(ctx, nok.ID, false))
		got, err := db.ListAvailableTherapists(ctx)
		require.NoError(t, err)
		for _, th := range got {
			assert.NotEqual(t, nok.ID, th.ID)
		}
	})
}

func TestServices(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	svc := &models.Service{Name: "Thai Massage", DurationMinutes: 60, Price: 600, IsActive: true}
	require.NoError(t, db.CreateService(ctx, svc))
	require.NoError(t, db.CreateService(ctx, &models.Service{
		Name: "Oil Massage", DurationMinutes: 90, Price: 900, IsActive: true,
	}))

	t.Run("ListActive", func(t *testing.T) {
		got, err := db.ListActiveServices(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("Update", func(t *testing.T) {
		svc.Price = 650
		require.NoError(t, db.UpdateService(ctx, svc))

		got, err := db.GetService(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(650), got.Price)
	})

	t.Run("Deactivate", func(t *testing.T) {
		require.NoError(t, db.DeactivateService(ctx, svc.ID))

		got, err := db.ListActiveServices(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		// The row itself survives for historical bookings.
		kept, err := db.GetService(ctx, svc.ID)
		require.NoError(t, err)
		assert.False(t, kept.IsActive)
	})
}
