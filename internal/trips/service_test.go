package trips

import (
	"context"
	"testing"

	"wayfarer-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTripsTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Trip{}, &domain.TripEvent{}))
	return &Service{DB: db}
}

func TestCreateTrip_SlugAndDefaults(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{
		Title:       "Ten Days in Northern Japan!",
		Destination: "Japan",
		CreatedBy:   uuid.New().String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "ten-days-in-northern-japan", trip.Slug)
	assert.Equal(t, domain.TripDraft, trip.Status)
	assert.NotEqual(t, uuid.Nil, trip.TripID)
}

func TestCreateTrip_Validation(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	_, err := svc.CreateTrip(ctx, CreateTripInput{Title: "  ", Destination: "Japan"})
	assert.ErrorIs(t, err, ErrInvalidTrip)
	_, err = svc.CreateTrip(ctx, CreateTripInput{Title: "Trip", Destination: ""})
	assert.ErrorIs(t, err, ErrInvalidTrip)
}

func TestCreateTrip_DuplicateSlug(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	_, err := svc.CreateTrip(ctx, CreateTripInput{Title: "Lisbon Weekend", Destination: "Portugal"})
	require.NoError(t, err)
	_, err = svc.CreateTrip(ctx, CreateTripInput{Title: "Lisbon Weekend", Destination: "Portugal"})
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestUpdateTrip_PatchesAndValidatesStatus(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{Title: "Alps", Destination: "Switzerland"})
	require.NoError(t, err)

	title := "Alps in Winter"
	status := domain.TripPublished
	updated, err := svc.UpdateTrip(ctx, trip.TripID, UpdateTripInput{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Alps in Winter", updated.Title)
	assert.Equal(t, domain.TripPublished, updated.Status)
	// slug stays stable across renames
	assert.Equal(t, trip.Slug, updated.Slug)

	bad := "deleted"
	_, err = svc.UpdateTrip(ctx, trip.TripID, UpdateTripInput{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalidTrip)

	_, err = svc.UpdateTrip(ctx, uuid.New(), UpdateTripInput{Title: &title})
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestArchiveTrip(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{Title: "Old Trip", Destination: "Italy"})
	require.NoError(t, err)

	archived, err := svc.ArchiveTrip(ctx, trip.TripID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripArchived, archived.Status)
}

func TestListTrips_StatusFilter(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	a, err := svc.CreateTrip(ctx, CreateTripInput{Title: "Draft One", Destination: "FR"})
	require.NoError(t, err)
	_, err = svc.CreateTrip(ctx, CreateTripInput{Title: "Draft Two", Destination: "ES"})
	require.NoError(t, err)
	_, err = svc.ArchiveTrip(ctx, a.TripID)
	require.NoError(t, err)

	all, err := svc.ListTrips(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	drafts, err := svc.ListTrips(ctx, domain.TripDraft)
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestAddEvent_OrderedByDayAndPosition(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{Title: "Kyoto", Destination: "Japan"})
	require.NoError(t, err)

	_, err = svc.AddEvent(ctx, AddEventInput{TripID: trip.TripID, Day: 2, Position: 1, Title: "Fushimi Inari"})
	require.NoError(t, err)
	_, err = svc.AddEvent(ctx, AddEventInput{TripID: trip.TripID, Day: 1, Position: 2, Title: "Lunch", Kind: "food"})
	require.NoError(t, err)
	_, err = svc.AddEvent(ctx, AddEventInput{TripID: trip.TripID, Day: 1, Position: 1, Title: "Kinkaku-ji"})
	require.NoError(t, err)

	_, err = svc.AddEvent(ctx, AddEventInput{TripID: trip.TripID, Day: 0, Title: "Bad Day"})
	assert.ErrorIs(t, err, ErrInvalidTrip)
	_, err = svc.AddEvent(ctx, AddEventInput{TripID: uuid.New(), Day: 1, Title: "Orphan"})
	assert.ErrorIs(t, err, ErrTripNotFound)

	got, err := svc.GetTrip(ctx, trip.TripID)
	require.NoError(t, err)
	require.Len(t, got.Events, 3)
	assert.Equal(t, "Kinkaku-ji", got.Events[0].Title)
	assert.Equal(t, "Lunch", got.Events[1].Title)
	assert.Equal(t, "Fushimi Inari", got.Events[2].Title)
	assert.Equal(t, "activity", got.Events[0].Kind)
	assert.Equal(t, "food", got.Events[1].Kind)
}

func TestTripExists(t *testing.T) {
	svc := setupTripsTest(t)
	ctx := context.Background()

	trip, err := svc.CreateTrip(ctx, CreateTripInput{Title: "Real", Destination: "DE"})
	require.NoError(t, err)

	ok, err := svc.TripExists(ctx, trip.TripID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.TripExists(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "a-week-in-rome", Slugify("A Week in Rome"))
	assert.Equal(t, "tokyo-kyoto-10-days", Slugify("Tokyo & Kyoto: 10 Days"))
	assert.Equal(t, "trip", Slugify("--Trip--"))
}
