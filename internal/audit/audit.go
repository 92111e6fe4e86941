// Package audit records security events (invitation lifecycle, rate-limit
// rejections) to the structured log and the AuditEvents table.
package audit

import (
	"context"

	"wayfarer-backend/internal/domain"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeDenied      = "denied"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

// Event is one security-relevant occurrence.
type Event struct {
	Actor   string
	Action  string
	Target  string
	Outcome string
	Details map[string]interface{}
}

// Sink consumes audit events. Recording must never fail the calling operation.
type Sink interface {
	Record(ctx context.Context, ev Event)
}

// Recorder writes events to zerolog and, when a DB is wired, to AuditEvents.
type Recorder struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

func (r *Recorder) Record(ctx context.Context, ev Event) {
	r.Log.Info().
		Str("actor", ev.Actor).
		Str("action", ev.Action).
		Str("target", ev.Target).
		Str("outcome", ev.Outcome).
		Msg("audit event")

	if r.DB == nil {
		return
	}
	row := &domain.AuditEvent{
		Actor:   ev.Actor,
		Action:  ev.Action,
		Target:  ev.Target,
		Outcome: ev.Outcome,
		Details: datatypes.JSONMap(ev.Details),
	}
	if err := r.DB.WithContext(ctx).Create(row).Error; err != nil {
		r.Log.Warn().Err(err).Str("action", ev.Action).Msg("audit event not persisted")
	}
}

// Discard is a Sink that drops everything (tests).
type Discard struct{}

func (Discard) Record(ctx context.Context, ev Event) {}
