package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string

	// Invitation email delivery
	EmailProvider string // "brevo" (default) or "ses"
	BrevoAPIKey   string
	MailFrom      string
	AWSRegion     string
	InviteBaseURL string // base URL for invite links (e.g. https://admin.wayfarer.guide)

	// Rate limits (requests per window per key)
	CreateInvitesPerHour  int
	ResendInvitesPerHour  int
	TokenChecksPerMinute  int
	AcceptAttemptsPerHour int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = viper.GetString("DATABASE_URL")
	}

	provider := strings.ToLower(viper.GetString("EMAIL_PROVIDER"))
	if provider == "" {
		provider = "brevo"
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),

		EmailProvider: provider,
		BrevoAPIKey:   viper.GetString("BREVO_API_KEY"),
		MailFrom:      viper.GetString("MAIL_FROM"),
		AWSRegion:     awsRegion(viper.GetString("AWS_REGION")),
		InviteBaseURL: inviteBaseURL(viper.GetString("INVITE_BASE_URL")),

		CreateInvitesPerHour:  intOr(viper.GetInt("RATE_CREATE_INVITES_PER_HOUR"), 20),
		ResendInvitesPerHour:  intOr(viper.GetInt("RATE_RESEND_INVITES_PER_HOUR"), 5),
		TokenChecksPerMinute:  intOr(viper.GetInt("RATE_TOKEN_CHECKS_PER_MINUTE"), 10),
		AcceptAttemptsPerHour: intOr(viper.GetInt("RATE_ACCEPT_ATTEMPTS_PER_HOUR"), 10),
	}, nil
}

func inviteBaseURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "https://admin.wayfarer.guide"
	}
	return s
}

func awsRegion(s string) string {
	if s == "" {
		return "eu-west-1"
	}
	return s
}

func intOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
