package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Trip statuses.
const (
	TripDraft     = "draft"
	TripPublished = "published"
	TripArchived  = "archived"
)

// Trip is a travel-guide itinerary container. Invitations may be scoped to one trip.
type Trip struct {
	TripID      uuid.UUID      `gorm:"column:trip_id;type:uuid;primaryKey" json:"trip_id"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Destination string         `gorm:"column:destination;not null" json:"destination"`
	Summary     string         `gorm:"column:summary" json:"summary"`
	StartDate   *time.Time     `gorm:"column:start_date" json:"start_date"`
	EndDate     *time.Time     `gorm:"column:end_date" json:"end_date"`
	Status      string         `gorm:"column:status;not null;default:'draft'" json:"status"`
	CreatedBy   string         `gorm:"column:created_by;not null" json:"created_by"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Events []TripEvent `gorm:"foreignKey:TripID;references:TripID" json:"events,omitempty"`
}

func (Trip) TableName() string {
	return "Trips"
}

func (t *Trip) BeforeCreate(tx *gorm.DB) error {
	if t.TripID == uuid.Nil {
		t.TripID = uuid.New()
	}
	return nil
}

// TripEvent is a single itinerary entry (activity, meal, transfer) within a trip day.
type TripEvent struct {
	EventID   uuid.UUID      `gorm:"column:event_id;type:uuid;primaryKey" json:"event_id"`
	TripID    uuid.UUID      `gorm:"column:trip_id;type:uuid;not null;index" json:"trip_id"`
	Day       int            `gorm:"column:day;not null" json:"day"`
	Position  int            `gorm:"column:position;not null;default:0" json:"position"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Kind      string         `gorm:"column:kind;not null;default:'activity'" json:"kind"`
	Notes     string         `gorm:"column:notes" json:"notes"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (TripEvent) TableName() string {
	return "TripEvents"
}

func (e *TripEvent) BeforeCreate(tx *gorm.DB) error {
	if e.EventID == uuid.Nil {
		e.EventID = uuid.New()
	}
	return nil
}
