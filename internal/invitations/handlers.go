package invitations

import (
	"errors"

	"wayfarer-backend/internal/middleware"
	"wayfarer-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handlers struct {
	Service *Service
}

// POST /api/v1/invitations/create-invite (INVITE_USER permission via middleware)
func (h *Handlers) SendInvite(c *fiber.Ctx) error {
	var body struct {
		Email    string                 `json:"email"`
		Role     string                 `json:"role"`
		TripID   string                 `json:"trip_id"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	if err := c.BodyParser(&body); err != nil || body.Email == "" || body.Role == "" {
		return response.Error(c, "Email and role are required", 400, nil)
	}

	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	var tripID *uuid.UUID
	if body.TripID != "" {
		id, err := uuid.Parse(body.TripID)
		if err != nil {
			return response.Error(c, "Invalid trip id", 400, nil)
		}
		tripID = &id
	}

	inv, _, err := h.Service.SendInvite(c.Context(), SendInviteInput{
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
		ActorEmail:  actor.Email,
		Email:       body.Email,
		Role:        body.Role,
		TripID:      tripID,
		Metadata:    body.Metadata,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return response.SuccessCreated(c, "Invitation sent successfully", inv, nil)
}

// POST /api/v1/invitations/resend-invite (INVITE_USER permission via middleware)
func (h *Handlers) ResendInvite(c *fiber.Ctx) error {
	var body struct {
		InviteID string `json:"invite_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.InviteID == "" {
		return response.Error(c, "Invite id is required", 400, nil)
	}
	id, err := uuid.Parse(body.InviteID)
	if err != nil {
		return response.Error(c, "Invalid invite id", 400, nil)
	}

	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	inv, _, err := h.Service.ResendInvite(c.Context(), ResendInviteInput{
		InviteID:    id,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Invitation resent successfully", inv, nil)
}

// PATCH /api/v1/invitations/cancel-invite (INVITE_USER permission via middleware)
func (h *Handlers) CancelInvite(c *fiber.Ctx) error {
	var body struct {
		InviteID string `json:"invite_id"`
	}
	if err := c.BodyParser(&body); err != nil || body.InviteID == "" {
		return response.Error(c, "Invite id is required", 400, nil)
	}
	id, err := uuid.Parse(body.InviteID)
	if err != nil {
		return response.Error(c, "Invalid invite id", 400, nil)
	}

	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.Service.CancelInvite(c.Context(), CancelInviteInput{
		InviteID:    id,
		ActorUserID: actor.UserID,
		ActorRole:   actor.Role,
	}); err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Invitation cancelled successfully", nil, nil)
}

// GET /api/v1/invitations/view-invites (VIEW_DATA permission via middleware)
func (h *Handlers) ListInvitations(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	filters := ListFilters{
		Status:  c.Query("status"),
		Email:   c.Query("email"),
		Page:    c.QueryInt("page", 1),
		PerPage: c.QueryInt("per_page", 20),
	}
	if tid := c.Query("trip_id"); tid != "" {
		id, err := uuid.Parse(tid)
		if err != nil {
			return response.Error(c, "Invalid trip id", 400, nil)
		}
		filters.TripID = &id
	}

	items, total, err := h.Service.ListInvitations(c.Context(), filters)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Invitations fetched successfully", items, fiber.Map{
		"total":    total,
		"page":     filters.Page,
		"per_page": filters.PerPage,
	})
}

// GET /api/v1/invitations/stats (VIEW_DATA permission via middleware)
func (h *Handlers) GetStats(c *fiber.Ctx) error {
	actor := getActor(c)
	if actor == nil {
		return response.Unauthorized(c, "Unauthorized")
	}
	stats, err := h.Service.GetStats(c.Context())
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Invitation stats fetched successfully", stats, nil)
}

// POST /api/v1/invitations/public/check-token (no auth)
func (h *Handlers) CheckToken(c *fiber.Ctx) error {
	var body struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "token is required", 400, nil)
	}

	result, err := h.Service.CheckInvitationToken(c.Context(), c.IP(), body.Token)
	if err != nil {
		return serviceError(c, err)
	}
	return response.Success(c, "Invitation token verified", result, nil)
}

// POST /api/v1/invitations/public/accept-invite (no auth)
func (h *Handlers) AcceptInvite(c *fiber.Ctx) error {
	var body struct {
		Token    string `json:"token"`
		Fullname string `json:"fullname"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil || body.Token == "" {
		return response.Error(c, "Invitation token required", 400, nil)
	}

	result, err := h.Service.AcceptInvite(c.Context(), c.IP(), AcceptInviteInput{
		Token:    body.Token,
		Fullname: body.Fullname,
		Password: body.Password,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return response.SuccessCreated(c, "Invitation accepted successfully", result, nil)
}

// serviceError maps taxonomy sentinels onto HTTP statuses with the standard
// error body. NotFound and Expired go through the same shape and code path.
func serviceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrExpired):
		status = fiber.StatusGone
	case errors.Is(err, ErrDuplicateActive), errors.Is(err, ErrAlreadyUsed), errors.Is(err, ErrInvalidState):
		status = fiber.StatusConflict
	case errors.Is(err, ErrPermissionDenied):
		status = fiber.StatusForbidden
	case errors.Is(err, ErrRateLimited):
		status = fiber.StatusTooManyRequests
	case errors.Is(err, ErrDependencyFailure):
		status = fiber.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidInput):
		status = fiber.StatusBadRequest
	}
	return response.Error(c, err.Error(), status, nil)
}

type actorInfo struct {
	UserID   string
	Fullname string
	Email    string
	Role     string
}

func getActor(c *fiber.Ctx) *actorInfo {
	u := middleware.GetUser(c)
	if u == nil {
		return nil
	}
	m, ok := u.(map[string]interface{})
	if !ok {
		return nil
	}
	userID, _ := m["user_id"].(string)
	role, _ := m["role"].(string)
	email, _ := m["email"].(string)
	fullname, _ := m["fullname"].(string)
	if userID == "" {
		return nil
	}
	return &actorInfo{UserID: userID, Fullname: fullname, Email: email, Role: role}
}
