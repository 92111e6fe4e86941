package invitations

import (
	"context"
	"strings"
	"time"

	"wayfarer-backend/internal/audit"
	"wayfarer-backend/internal/constants"
	"wayfarer-backend/internal/domain"
	"wayfarer-backend/internal/emails"
	"wayfarer-backend/internal/pkg/validation"
	"wayfarer-backend/internal/ratelimit"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
)

const inviteExpiry = 7 * 24 * time.Hour

// resendCooldown is the per-invitation floor between resends, tighter than
// the actor-level create limit.
const resendCooldown = 24 * time.Hour

// AccountCreator provisions the downstream account once an invitation has
// been atomically consumed.
type AccountCreator interface {
	CreateInvitedUser(ctx context.Context, email, fullname, password, role string) (string, error)
}

// TripChecker verifies that a trip-scoped invitation points at a real trip.
type TripChecker interface {
	TripExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service orchestrates the invitation lifecycle. All limiter checks run
// before any hashing or store work so a limited caller's response time is
// independent of token validity.
type Service struct {
	Store    Store
	Codec    Codec
	Notifier emails.Sender
	Audit    audit.Sink
	Accounts AccountCreator
	Trips    TripChecker
	Log      zerolog.Logger

	CreateLimiter   ratelimit.Limiter
	ResendLimiter   ratelimit.Limiter
	ValidateLimiter ratelimit.Limiter
	AcceptLimiter   ratelimit.Limiter
}

type SendInviteInput struct {
	ActorUserID string
	ActorRole   string
	ActorEmail  string
	Email       string
	Role        string
	TripID      *uuid.UUID
	Metadata    map[string]interface{}
}

// SendInvite creates an invitation and emails the setup link. The raw token is
// returned to the caller for delivery only; it is never persisted or exposed
// in API responses.
func (s *Service) SendInvite(ctx context.Context, in SendInviteInput) (*domain.Invitation, string, error) {
	if ok := s.allow(ctx, s.CreateLimiter, "invite:create:"+in.ActorUserID); !ok {
		s.record(ctx, in.ActorUserID, "invite.create", in.Email, audit.OutcomeRateLimited, nil)
		return nil, "", ErrRateLimited
	}

	email := validation.NormalizeEmail(in.Email)
	if !validation.IsValidEmail(email) {
		return nil, "", ErrInvalidInput
	}
	if IsDisposableDomain(validation.EmailDomain(email)) {
		return nil, "", ErrInvalidInput
	}
	if email == validation.NormalizeEmail(in.ActorEmail) {
		return nil, "", ErrInvalidInput
	}
	if !constants.IsValidRole(in.Role) {
		return nil, "", ErrInvalidInput
	}
	if !constants.TierAtOrBelow(in.ActorRole, in.Role) {
		s.record(ctx, in.ActorUserID, "invite.create", email, audit.OutcomeDenied, map[string]interface{}{"role": in.Role})
		return nil, "", ErrPermissionDenied
	}
	if in.TripID != nil && s.Trips != nil {
		exists, err := s.Trips.TripExists(ctx, *in.TripID)
		if err != nil {
			return nil, "", s.depFailure(err, "trip lookup")
		}
		if !exists {
			return nil, "", ErrInvalidInput
		}
	}

	rawSecret, tokenHash, salt, err := s.Codec.Generate()
	if err != nil {
		return nil, "", s.depFailure(err, "token generation")
	}

	inv := &domain.Invitation{
		Email:     email,
		Role:      in.Role,
		InvitedBy: in.ActorUserID,
		TripID:    in.TripID,
		TokenHash: tokenHash,
		Salt:      salt,
		Metadata:  datatypes.JSONMap(in.Metadata),
		ExpiresAt: time.Now().Add(inviteExpiry),
	}
	if err := s.Store.Insert(ctx, inv); err != nil {
		if IsTaxonomy(err) {
			return nil, "", err
		}
		return nil, "", s.depFailure(err, "invitation insert")
	}

	rawToken := FormatToken(inv.InviteID, rawSecret)
	s.notify(ctx, inv, rawToken)
	s.record(ctx, in.ActorUserID, "invite.create", email, audit.OutcomeSuccess, map[string]interface{}{"invite_id": inv.InviteID.String(), "role": inv.Role})
	return inv, rawToken, nil
}

// CheckTokenResult is what an unauthenticated invitee sees about their invitation.
type CheckTokenResult struct {
	Email     string            `json:"email"`
	Role      string            `json:"role"`
	TripID    *uuid.UUID        `json:"trip_id"`
	ExpiresAt time.Time         `json:"expires_at"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// CheckInvitationToken validates a raw token without mutating anything.
// All token-shaped failures funnel through the same path and error class so a
// probing caller cannot distinguish "never existed" from "wrong secret".
func (s *Service) CheckInvitationToken(ctx context.Context, clientKey, rawToken string) (*CheckTokenResult, error) {
	if ok := s.allow(ctx, s.ValidateLimiter, "invite:check:"+clientKey); !ok {
		s.record(ctx, clientKey, "invite.check", "", audit.OutcomeRateLimited, nil)
		return nil, ErrRateLimited
	}

	inv, err := s.verifyToken(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return &CheckTokenResult{
		Email:     inv.Email,
		Role:      inv.Role,
		TripID:    inv.TripID,
		ExpiresAt: inv.ExpiresAt,
		Metadata:  inv.Metadata,
	}, nil
}

type AcceptInviteInput struct {
	Token    string
	Fullname string
	Password string
}

// AcceptInviteResult identifies the account created from a consumed invitation.
type AcceptInviteResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// AcceptInvite consumes the invitation exactly once and provisions the
// account. Concurrent accepts of the same token produce one winner; losers
// get AlreadyUsed and no second account.
func (s *Service) AcceptInvite(ctx context.Context, clientKey string, in AcceptInviteInput) (*AcceptInviteResult, error) {
	if ok := s.allow(ctx, s.AcceptLimiter, "invite:accept:"+clientKey); !ok {
		s.record(ctx, clientKey, "invite.accept", "", audit.OutcomeRateLimited, nil)
		return nil, ErrRateLimited
	}

	if !validation.IsValidFullname(in.Fullname) || !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidInput
	}

	inv, err := s.verifyToken(ctx, in.Token)
	if err != nil {
		return nil, err
	}

	consumed, err := s.Store.ConsumeAtomic(ctx, inv.InviteID, inv.Email)
	if err != nil {
		if IsTaxonomy(err) {
			s.record(ctx, inv.Email, "invite.accept", inv.InviteID.String(), audit.OutcomeFailed, map[string]interface{}{"reason": err.Error()})
			return nil, err
		}
		return nil, s.depFailure(err, "invitation consume")
	}

	userID, err := s.Accounts.CreateInvitedUser(ctx, consumed.Email, strings.TrimSpace(in.Fullname), in.Password, consumed.Role)
	if err != nil {
		s.record(ctx, consumed.Email, "invite.accept", consumed.InviteID.String(), audit.OutcomeFailed, nil)
		return nil, s.depFailure(err, "account creation")
	}

	s.record(ctx, consumed.Email, "invite.accept", consumed.InviteID.String(), audit.OutcomeSuccess, map[string]interface{}{"user_id": userID})
	return &AcceptInviteResult{UserID: userID, Email: consumed.Email, Role: consumed.Role}, nil
}

type ResendInviteInput struct {
	InviteID    uuid.UUID
	ActorUserID string
	ActorRole   string
}

// ResendInvite rotates the token and expiry of a pending invitation and sends
// a fresh email. The old token stops matching the moment the hash+salt pair
// is overwritten.
func (s *Service) ResendInvite(ctx context.Context, in ResendInviteInput) (*domain.Invitation, string, error) {
	if ok := s.allow(ctx, s.ResendLimiter, "invite:resend:"+in.ActorUserID); !ok {
		s.record(ctx, in.ActorUserID, "invite.resend", in.InviteID.String(), audit.OutcomeRateLimited, nil)
		return nil, "", ErrRateLimited
	}

	inv, err := s.Store.FindByID(ctx, in.InviteID)
	if err != nil {
		if IsTaxonomy(err) {
			return nil, "", err
		}
		return nil, "", s.depFailure(err, "invitation lookup")
	}
	if inv.Used {
		return nil, "", ErrInvalidState
	}
	if !inv.ExpiresAt.After(time.Now()) {
		return nil, "", ErrExpired
	}
	if !constants.TierAtOrBelow(in.ActorRole, inv.Role) {
		s.record(ctx, in.ActorUserID, "invite.resend", inv.InviteID.String(), audit.OutcomeDenied, nil)
		return nil, "", ErrPermissionDenied
	}
	if time.Since(inv.UpdatedAt) < resendCooldown {
		return nil, "", ErrRateLimited
	}

	rawSecret, tokenHash, salt, err := s.Codec.Generate()
	if err != nil {
		return nil, "", s.depFailure(err, "token generation")
	}
	rotated, err := s.Store.Rotate(ctx, inv.InviteID, tokenHash, salt, time.Now().Add(inviteExpiry))
	if err != nil {
		if IsTaxonomy(err) {
			return nil, "", err
		}
		return nil, "", s.depFailure(err, "invitation rotate")
	}

	rawToken := FormatToken(rotated.InviteID, rawSecret)
	s.notify(ctx, rotated, rawToken)
	s.record(ctx, in.ActorUserID, "invite.resend", rotated.InviteID.String(), audit.OutcomeSuccess, nil)
	return rotated, rawToken, nil
}

type CancelInviteInput struct {
	InviteID    uuid.UUID
	ActorUserID string
	ActorRole   string
}

// CancelInvite tombstones a pending invitation. Cancelling one that is
// already gone is a no-op; cancelling a consumed one reports InvalidState.
func (s *Service) CancelInvite(ctx context.Context, in CancelInviteInput) error {
	inv, err := s.Store.FindByID(ctx, in.InviteID)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		if IsTaxonomy(err) {
			return err
		}
		return s.depFailure(err, "invitation lookup")
	}
	if inv.Used {
		return ErrInvalidState
	}
	if !constants.TierAtOrBelow(in.ActorRole, inv.Role) {
		s.record(ctx, in.ActorUserID, "invite.cancel", inv.InviteID.String(), audit.OutcomeDenied, nil)
		return ErrPermissionDenied
	}
	if err := s.Store.Delete(ctx, in.InviteID); err != nil {
		if IsTaxonomy(err) {
			return err
		}
		return s.depFailure(err, "invitation delete")
	}
	s.record(ctx, in.ActorUserID, "invite.cancel", inv.InviteID.String(), audit.OutcomeSuccess, nil)
	return nil
}

// ListInvitations returns a filtered page plus the total count.
func (s *Service) ListInvitations(ctx context.Context, f ListFilters) ([]domain.Invitation, int64, error) {
	if f.Email != "" {
		f.Email = validation.NormalizeEmail(f.Email)
	}
	items, total, err := s.Store.List(ctx, f)
	if err != nil {
		return nil, 0, s.depFailure(err, "invitation list")
	}
	return items, total, nil
}

// GetStats returns the derived lifecycle breakdown.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	stats, err := s.Store.Stats(ctx)
	if err != nil {
		return Stats{}, s.depFailure(err, "invitation stats")
	}
	return stats, nil
}

// CleanupExpired counts pending invitations past expiry. Advisory only:
// expiry is enforced lazily at read time, so correctness never depends on
// this sweep running.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	count, err := s.Store.CountExpiredPending(ctx)
	if err != nil {
		return 0, s.depFailure(err, "expired sweep")
	}
	if count > 0 {
		s.Log.Info().Int64("count", count).Msg("pending invitations past expiry")
	}
	return count, nil
}

// verifyToken is the single path every raw-token operation goes through.
// Parse failure, unknown id and wrong secret all collapse to NotFound;
// expiry beats used so an expired invitation never leaks its used state.
func (s *Service) verifyToken(ctx context.Context, rawToken string) (*domain.Invitation, error) {
	id, secret, ok := ParseToken(rawToken)
	if !ok {
		return nil, ErrNotFound
	}
	inv, err := s.Store.FindByID(ctx, id)
	if err != nil {
		if IsTaxonomy(err) {
			return nil, err
		}
		return nil, s.depFailure(err, "invitation lookup")
	}
	if !s.Codec.Verify(secret, inv.Salt, inv.TokenHash) {
		return nil, ErrNotFound
	}
	if !inv.ExpiresAt.After(time.Now()) {
		return nil, ErrExpired
	}
	if inv.Used {
		return nil, ErrAlreadyUsed
	}
	return inv, nil
}

// allow asks the limiter, treating a limiter backend failure as open (the
// store remains the authority on correctness, the limiter on abuse).
func (s *Service) allow(ctx context.Context, l ratelimit.Limiter, key string) bool {
	if l == nil {
		return true
	}
	ok, err := l.Allow(ctx, key)
	if err != nil {
		s.Log.Warn().Err(err).Str("key", key).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

// notify sends the invite email. Failures are logged and swallowed: the
// invitation exists regardless and can be resent.
func (s *Service) notify(ctx context.Context, inv *domain.Invitation, rawToken string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendInvite(ctx, inv.Email, rawToken, inv.Role, inv.ExpiresAt); err != nil {
		s.Log.Warn().Err(err).Str("email", inv.Email).Msg("invitation email not delivered")
	}
}

func (s *Service) record(ctx context.Context, actor, action, target, outcome string, details map[string]interface{}) {
	if s.Audit == nil {
		return
	}
	s.Audit.Record(ctx, audit.Event{Actor: actor, Action: action, Target: target, Outcome: outcome, Details: details})
}

// depFailure logs the underlying error and surfaces the generic sentinel so
// storage detail never reaches a caller.
func (s *Service) depFailure(err error, op string) error {
	s.Log.Error().Err(err).Str("op", op).Msg("dependency failure")
	return ErrDependencyFailure
}
