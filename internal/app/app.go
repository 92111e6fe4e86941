package app

import (
	"context"
	"time"

	"wayfarer-backend/internal/audit"
	"wayfarer-backend/internal/config"
	"wayfarer-backend/internal/constants"
	"wayfarer-backend/internal/database"
	"wayfarer-backend/internal/emails"
	"wayfarer-backend/internal/health"
	"wayfarer-backend/internal/invitations"
	"wayfarer-backend/internal/middleware"
	"wayfarer-backend/internal/ratelimit"
	"wayfarer-backend/internal/trips"
	"wayfarer-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. The DB and Redis clients are returned for startup pings.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	// CORS (before session)
	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Session (Redis); the health marker shares the Redis client
	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	// --- Routes (no auth) ---
	var invService *invitations.Service
	if db != nil {
		invService, err = buildInvitationService(cfg, db, rdb)
		if err != nil {
			return nil, nil, nil, err
		}
		go expirySweep(invService)
	}

	healthHandlers := &health.Handlers{
		Rdb:            rdb,
		DB:             gormPinger(db),
		Invites:        inviteCounts{svc: invService},
		FrontendURL:    cfg.InviteBaseURL,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", healthHandlers.JSON)
	app.Get("/health/reset", healthHandlers.Reset)

	if db == nil {
		return app, nil, rdb, nil
	}

	invHandlers := &invitations.Handlers{Service: invService}

	// Public invitation routes: no session, keyed by client IP inside the service
	app.Post("/api/v1/invitations/public/check-token", invHandlers.CheckToken)
	app.Post("/api/v1/invitations/public/accept-invite", invHandlers.AcceptInvite)

	// --- Protected modules (auth required) ---
	invGroup := app.Group("/api/v1/invitations", middleware.RequireAuth())
	invGroup.Post("/create-invite", middleware.AuthorizePermission(constants.InviteUser), invHandlers.SendInvite)
	invGroup.Post("/resend-invite", middleware.AuthorizePermission(constants.InviteUser), invHandlers.ResendInvite)
	invGroup.Patch("/cancel-invite", middleware.AuthorizePermission(constants.InviteUser), invHandlers.CancelInvite)
	invGroup.Get("/view-invites", middleware.AuthorizePermission(constants.ViewData), invHandlers.ListInvitations)
	invGroup.Get("/stats", middleware.AuthorizePermission(constants.ViewData), invHandlers.GetStats)

	tripService := &trips.Service{DB: db}
	tripHandlers := &trips.Handlers{Service: tripService}
	tripGroup := app.Group("/api/v1/trips", middleware.RequireAuth())
	tripGroup.Post("/create-trip", middleware.AuthorizePermission(constants.CreateTrip), tripHandlers.CreateTrip)
	tripGroup.Get("/view-trips", middleware.AuthorizePermission(constants.ViewData), tripHandlers.ListTrips)
	tripGroup.Get("/view-trip/:trip_id", middleware.AuthorizePermission(constants.ViewData), tripHandlers.GetTrip)
	tripGroup.Patch("/update-trip/:trip_id", middleware.AuthorizePermission(constants.EditTrip), tripHandlers.UpdateTrip)
	tripGroup.Post("/archive-trip/:trip_id", middleware.AuthorizePermission(constants.ArchiveTrip), tripHandlers.ArchiveTrip)
	tripGroup.Post("/add-event/:trip_id", middleware.AuthorizePermission(constants.EditTrip), tripHandlers.AddEvent)

	return app, db, rdb, nil
}

// expirySweep logs a count of pending invitations past expiry once an hour.
// Expiry itself is enforced at read time; the sweep is observational.
func expirySweep(svc *invitations.Service) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := svc.CleanupExpired(context.Background()); err != nil {
			log.Warn().Err(err).Msg("expired invitation sweep failed")
		}
	}
}

// buildInvitationService wires the invitation service: store, token codec,
// email sender (Brevo or SES), audit recorder, Redis-backed rate limiters.
func buildInvitationService(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*invitations.Service, error) {
	var notifier emails.Sender
	if cfg.EmailProvider == "ses" {
		ses, err := emails.NewSESClient(context.Background(), cfg.AWSRegion, cfg.MailFrom, cfg.InviteBaseURL)
		if err != nil {
			return nil, err
		}
		notifier = ses
	} else {
		notifier = &emails.BrevoClient{
			APIKey:        cfg.BrevoAPIKey,
			MailFrom:      cfg.MailFrom,
			InviteBaseURL: cfg.InviteBaseURL,
		}
	}

	return &invitations.Service{
		Store:    &invitations.GormStore{DB: db},
		Codec:    invitations.Codec{},
		Notifier: notifier,
		Audit:    &audit.Recorder{DB: db, Log: log.Logger},
		Accounts: &users.Service{DB: db},
		Trips:    &trips.Service{DB: db},
		Log:      log.Logger,

		CreateLimiter:   buildLimiter(rdb, "rl:", cfg.CreateInvitesPerHour, time.Hour),
		ResendLimiter:   buildLimiter(rdb, "rl:", cfg.ResendInvitesPerHour, time.Hour),
		ValidateLimiter: buildLimiter(rdb, "rl:", cfg.TokenChecksPerMinute, time.Minute),
		AcceptLimiter:   buildLimiter(rdb, "rl:", cfg.AcceptAttemptsPerHour, time.Hour),
	}, nil
}

// buildLimiter prefers the shared Redis window; without Redis each instance
// falls back to its own in-process buckets.
func buildLimiter(rdb *redis.Client, prefix string, max int, window time.Duration) ratelimit.Limiter {
	if rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, prefix, max, window)
	}
	return ratelimit.NewMemoryLimiter(max, window, 2*window)
}

// dbPinger adapts *gorm.DB to the health check.
type dbPinger struct {
	db *gorm.DB
}

func (p dbPinger) Ping() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func gormPinger(db *gorm.DB) health.DBPinger {
	if db == nil {
		return nil
	}
	return dbPinger{db: db}
}

// inviteCounts adapts the invitation stats to the health payload.
type inviteCounts struct {
	svc *invitations.Service
}

func (a inviteCounts) Counts(ctx context.Context) (int64, int64, int64, error) {
	if a.svc == nil {
		return 0, 0, 0, nil
	}
	stats, err := a.svc.GetStats(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	return stats.Pending, stats.Accepted, stats.Expired, nil
}
