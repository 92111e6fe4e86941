package trips

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"wayfarer-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrTripNotFound = errors.New("Trip not found")
	ErrSlugTaken    = errors.New("A trip with this slug already exists")
	ErrInvalidTrip  = errors.New("Title and destination are required")
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

type Service struct {
	DB *gorm.DB
}

type CreateTripInput struct {
	Title       string
	Destination string
	Summary     string
	StartDate   *time.Time
	EndDate     *time.Time
	CreatedBy   string
}

func (s *Service) CreateTrip(ctx context.Context, in CreateTripInput) (*domain.Trip, error) {
	title := strings.TrimSpace(in.Title)
	dest := strings.TrimSpace(in.Destination)
	if title == "" || dest == "" {
		return nil, ErrInvalidTrip
	}

	trip := &domain.Trip{
		Title:       title,
		Slug:        Slugify(title),
		Destination: dest,
		Summary:     strings.TrimSpace(in.Summary),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      domain.TripDraft,
		CreatedBy:   in.CreatedBy,
	}

	var count int64
	if err := s.DB.WithContext(ctx).Model(&domain.Trip{}).Where("slug = ?", trip.Slug).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	if err := s.DB.WithContext(ctx).Create(trip).Error; err != nil {
		return nil, err
	}
	return trip, nil
}

func (s *Service) GetTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	var trip domain.Trip
	err := s.DB.WithContext(ctx).Preload("Events", func(db *gorm.DB) *gorm.DB {
		return db.Order("day ASC, position ASC")
	}).Where("trip_id = ?", id).First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTripNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

func (s *Service) ListTrips(ctx context.Context, status string) ([]domain.Trip, error) {
	q := s.DB.WithContext(ctx).Model(&domain.Trip{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []domain.Trip
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

type UpdateTripInput struct {
	Title       *string
	Destination *string
	Summary     *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *string
}

func (s *Service) UpdateTrip(ctx context.Context, id uuid.UUID, in UpdateTripInput) (*domain.Trip, error) {
	var trip domain.Trip
	if err := s.DB.WithContext(ctx).Where("trip_id = ?", id).First(&trip).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) != "" {
		trip.Title = strings.TrimSpace(*in.Title)
	}
	if in.Destination != nil && strings.TrimSpace(*in.Destination) != "" {
		trip.Destination = strings.TrimSpace(*in.Destination)
	}
	if in.Summary != nil {
		trip.Summary = strings.TrimSpace(*in.Summary)
	}
	if in.StartDate != nil {
		trip.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		trip.EndDate = in.EndDate
	}
	if in.Status != nil {
		switch *in.Status {
		case domain.TripDraft, domain.TripPublished, domain.TripArchived:
			trip.Status = *in.Status
		default:
			return nil, ErrInvalidTrip
		}
	}

	if err := s.DB.WithContext(ctx).Save(&trip).Error; err != nil {
		return nil, err
	}
	return &trip, nil
}

func (s *Service) ArchiveTrip(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	status := domain.TripArchived
	return s.UpdateTrip(ctx, id, UpdateTripInput{Status: &status})
}

type AddEventInput struct {
	TripID   uuid.UUID
	Day      int
	Position int
	Title    string
	Kind     string
	Notes    string
}

func (s *Service) AddEvent(ctx context.Context, in AddEventInput) (*domain.TripEvent, error) {
	if strings.TrimSpace(in.Title) == "" || in.Day < 1 {
		return nil, ErrInvalidTrip
	}
	if _, err := s.GetTrip(ctx, in.TripID); err != nil {
		return nil, err
	}
	kind := in.Kind
	if kind == "" {
		kind = "activity"
	}
	ev := &domain.TripEvent{
		TripID:   in.TripID,
		Day:      in.Day,
		Position: in.Position,
		Title:    strings.TrimSpace(in.Title),
		Kind:     kind,
		Notes:    strings.TrimSpace(in.Notes),
	}
	if err := s.DB.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

// TripExists satisfies the invitation service's trip-scoping check.
func (s *Service) TripExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&domain.Trip{}).Where("trip_id = ?", id).Count(&count).Error
	return count > 0, err
}

// Slugify lower-cases a title and collapses everything else to hyphens.
func Slugify(title string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}
