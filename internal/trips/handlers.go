package trips

import (
	"time"

	"wayfarer-backend/internal/middleware"
	"wayfarer-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// POST /api/v1/trips/create-trip (CREATE_TRIP permission via middleware)
func (h *Handlers) CreateTrip(c *fiber.Ctx) error {
	var body struct {
		Title       string `json:"title"`
		Destination string `json:"destination"`
		Summary     string `json:"summary"`
		StartDate   string `json:"start_date"`
		EndDate     string `json:"end_date"`
	}
	if err := c.BodyParser(&body); err != nil || body.Title == "" || body.Destination == "" {
		return response.Error(c, "Title and destination are required", 400, nil)
	}

	actor := actorID(c)
	if actor == "" {
		return response.Unauthorized(c, "Unauthorized")
	}

	start, err := parseDate(body.StartDate)
	if err != nil {
		return response.Error(c, "Invalid start_date", 400, nil)
	}
	end, err := parseDate(body.EndDate)
	if err != nil {
		return response.Error(c, "Invalid end_date", 400, nil)
	}

	trip, err := h.Service.CreateTrip(c.Context(), CreateTripInput{
		Title:       body.Title,
		Destination: body.Destination,
		Summary:     body.Summary,
		StartDate:   start,
		EndDate:     end,
		CreatedBy:   actor,
	})
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.SuccessCreated(c, "Trip created successfully", trip, nil)
}

// GET /api/v1/trips/view-trips (VIEW_DATA permission via middleware)
func (h *Handlers) ListTrips(c *fiber.Ctx) error {
	trips, err := h.Service.ListTrips(c.Context(), c.Query("status"))
	if err != nil {
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.Success(c, "Trips fetched successfully", trips, nil)
}

// GET /api/v1/trips/view-trip/:trip_id (VIEW_DATA permission via middleware)
func (h *Handlers) GetTrip(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("trip_id"))
	if err != nil {
		return response.Error(c, "Invalid trip id", 400, nil)
	}
	trip, err := h.Service.GetTrip(c.Context(), id)
	if err != nil {
		if err == ErrTripNotFound {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.Success(c, "Trip fetched successfully", trip, nil)
}

// PATCH /api/v1/trips/update-trip/:trip_id (EDIT_TRIP permission via middleware)
func (h *Handlers) UpdateTrip(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("trip_id"))
	if err != nil {
		return response.Error(c, "Invalid trip id", 400, nil)
	}

	var body struct {
		Title       *string `json:"title"`
		Destination *string `json:"destination"`
		Summary     *string `json:"summary"`
		StartDate   *string `json:"start_date"`
		EndDate     *string `json:"end_date"`
		Status      *string `json:"status"`
	}
	if err := c.BodyParser(&body); err != nil {
		return response.Error(c, "Invalid request body", 400, nil)
	}

	in := UpdateTripInput{
		Title:       body.Title,
		Destination: body.Destination,
		Summary:     body.Summary,
		Status:      body.Status,
	}
	if body.StartDate != nil {
		d, err := parseDate(*body.StartDate)
		if err != nil {
			return response.Error(c, "Invalid start_date", 400, nil)
		}
		in.StartDate = d
	}
	if body.EndDate != nil {
		d, err := parseDate(*body.EndDate)
		if err != nil {
			return response.Error(c, "Invalid end_date", 400, nil)
		}
		in.EndDate = d
	}

	trip, err := h.Service.UpdateTrip(c.Context(), id, in)
	if err != nil {
		if err == ErrTripNotFound {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.Success(c, "Trip updated successfully", trip, nil)
}

// POST /api/v1/trips/archive-trip/:trip_id (ARCHIVE_TRIP permission via middleware)
func (h *Handlers) ArchiveTrip(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("trip_id"))
	if err != nil {
		return response.Error(c, "Invalid trip id", 400, nil)
	}
	trip, err := h.Service.ArchiveTrip(c.Context(), id)
	if err != nil {
		if err == ErrTripNotFound {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.Success(c, "Trip archived successfully", trip, nil)
}

// POST /api/v1/trips/add-event/:trip_id (EDIT_TRIP permission via middleware)
func (h *Handlers) AddEvent(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("trip_id"))
	if err != nil {
		return response.Error(c, "Invalid trip id", 400, nil)
	}

	var body struct {
		Day      int    `json:"day"`
		Position int    `json:"position"`
		Title    string `json:"title"`
		Kind     string `json:"kind"`
		Notes    string `json:"notes"`
	}
	if err := c.BodyParser(&body); err != nil || body.Title == "" {
		return response.Error(c, "Event title is required", 400, nil)
	}

	ev, err := h.Service.AddEvent(c.Context(), AddEventInput{
		TripID:   id,
		Day:      body.Day,
		Position: body.Position,
		Title:    body.Title,
		Kind:     body.Kind,
		Notes:    body.Notes,
	})
	if err != nil {
		if err == ErrTripNotFound {
			return response.Error(c, err.Error(), 404, nil)
		}
		return response.Error(c, err.Error(), 400, nil)
	}
	return response.SuccessCreated(c, "Event added successfully", ev, nil)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func actorID(c *fiber.Ctx) string {
	u := middleware.GetUser(c)
	m, ok := u.(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := m["user_id"].(string)
	return id
}
