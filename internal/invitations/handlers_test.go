package invitations

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"wayfarer-backend/internal/audit"
	"wayfarer-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupHandlersTest(t *testing.T) (*Handlers, *captureSender) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Invitation{}))

	sender := &captureSender{}
	svc := &Service{
		Store:    &GormStore{DB: db},
		Codec:    Codec{},
		Notifier: sender,
		Audit:    audit.Discard{},
		Accounts: &stubAccounts{},
		Log:      zerolog.Nop(),
	}
	return &Handlers{Service: svc}, sender
}

func withSessionUser(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("user", map[string]interface{}{
			"user_id":  uuid.New().String(),
			"role":     role,
			"email":    "actor@wayfarer.guide",
			"fullname": "Actor",
		})
		return c.Next()
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func TestCheckToken_MissingToken(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Post("/check-token", h.CheckToken)

	status, _ := doJSON(t, app, "POST", "/check-token", map[string]string{})
	assert.Equal(t, 400, status)
}

func TestCheckToken_UnknownToken(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Post("/check-token", h.CheckToken)

	status, body := doJSON(t, app, "POST", "/check-token", map[string]string{"token": "nonexistent-token"})
	assert.Equal(t, 404, status)
	errObj, _ := body["error"].(map[string]interface{})
	assert.Equal(t, "Invalid invitation token", errObj["message"])
}

func TestCheckToken_ValidToken(t *testing.T) {
	h, sender := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)
	app.Post("/check-token", h.CheckToken)

	status, _ := doJSON(t, app, "POST", "/create-invite", map[string]string{
		"email": "invitee@test.com", "role": "viewer",
	})
	require.Equal(t, 201, status)
	require.Len(t, sender.tokens, 1)

	status, body := doJSON(t, app, "POST", "/check-token", map[string]string{"token": sender.tokens[0]})
	assert.Equal(t, 200, status)
	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, "invitee@test.com", data["email"])
	assert.Equal(t, "viewer", data["role"])
}

func TestSendInvite_MissingFields(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)

	status, _ := doJSON(t, app, "POST", "/create-invite", map[string]string{"email": "x@test.com"})
	assert.Equal(t, 400, status)
}

func TestSendInvite_NoSession(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Post("/create-invite", h.SendInvite)

	status, _ := doJSON(t, app, "POST", "/create-invite", map[string]string{
		"email": "x@test.com", "role": "viewer",
	})
	assert.Equal(t, 401, status)
}

func TestSendInvite_RoleAboveActorIs403(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("editor"))
	app.Post("/create-invite", h.SendInvite)

	status, body := doJSON(t, app, "POST", "/create-invite", map[string]string{
		"email": "x@test.com", "role": "admin",
	})
	assert.Equal(t, 403, status)
	errObj, _ := body["error"].(map[string]interface{})
	assert.Equal(t, "You cannot invite a role above your own", errObj["message"])
}

func TestSendInvite_DuplicateIs409(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)

	payload := map[string]string{"email": "dup@test.com", "role": "viewer"}
	status, _ := doJSON(t, app, "POST", "/create-invite", payload)
	require.Equal(t, 201, status)
	status, _ = doJSON(t, app, "POST", "/create-invite", payload)
	assert.Equal(t, 409, status)
}

func TestSendInvite_ResponseNeverLeaksToken(t *testing.T) {
	h, sender := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)

	req := httptest.NewRequest("POST", "/create-invite", bytes.NewReader([]byte(`{"email":"leak@test.com","role":"viewer"}`)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	require.Len(t, sender.tokens, 1)
	assert.NotContains(t, buf.String(), sender.tokens[0])
	assert.NotContains(t, buf.String(), "token_hash")
	assert.NotContains(t, buf.String(), "salt")
}

func TestAcceptInvite_EndToEnd(t *testing.T) {
	h, sender := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)
	app.Post("/accept-invite", h.AcceptInvite)

	status, _ := doJSON(t, app, "POST", "/create-invite", map[string]string{
		"email": "joiner@test.com", "role": "editor",
	})
	require.Equal(t, 201, status)

	accept := map[string]string{
		"token": sender.tokens[0], "fullname": "New Joiner", "password": "Str0ng!pass",
	}
	status, body := doJSON(t, app, "POST", "/accept-invite", accept)
	assert.Equal(t, 201, status)
	data, _ := body["data"].(map[string]interface{})
	assert.Equal(t, "joiner@test.com", data["email"])
	assert.Equal(t, "editor", data["role"])
	assert.NotEmpty(t, data["user_id"])

	// replay is a conflict
	status, _ = doJSON(t, app, "POST", "/accept-invite", accept)
	assert.Equal(t, 409, status)
}

func TestCancelInvite_Flow(t *testing.T) {
	h, sender := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)
	app.Patch("/cancel-invite", h.CancelInvite)
	app.Post("/check-token", h.CheckToken)

	status, body := doJSON(t, app, "POST", "/create-invite", map[string]string{
		"email": "gone@test.com", "role": "viewer",
	})
	require.Equal(t, 201, status)
	data, _ := body["data"].(map[string]interface{})
	inviteID, _ := data["invite_id"].(string)
	require.NotEmpty(t, inviteID)

	status, _ = doJSON(t, app, "PATCH", "/cancel-invite", map[string]string{"invite_id": inviteID})
	assert.Equal(t, 200, status)

	status, _ = doJSON(t, app, "POST", "/check-token", map[string]string{"token": sender.tokens[0]})
	assert.Equal(t, 404, status)
}

func TestListInvitations_WithMeta(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)
	app.Get("/view-invites", h.ListInvitations)

	for _, email := range []string{"l1@test.com", "l2@test.com", "l3@test.com"} {
		status, _ := doJSON(t, app, "POST", "/create-invite", map[string]string{"email": email, "role": "viewer"})
		require.Equal(t, 201, status)
	}

	status, body := doJSON(t, app, "GET", "/view-invites?status=pending&per_page=2", nil)
	assert.Equal(t, 200, status)
	meta, _ := body["metadata"].(map[string]interface{})
	assert.EqualValues(t, 3, meta["total"])
	items, _ := body["data"].([]interface{})
	assert.Len(t, items, 2)
}

func TestGetStats_Shape(t *testing.T) {
	h, _ := setupHandlersTest(t)
	app := fiber.New()
	app.Use(withSessionUser("admin"))
	app.Post("/create-invite", h.SendInvite)
	app.Get("/stats", h.GetStats)

	status, _ := doJSON(t, app, "POST", "/create-invite", map[string]string{"email": "st@test.com", "role": "viewer"})
	require.Equal(t, 201, status)

	status, body := doJSON(t, app, "GET", "/stats", nil)
	assert.Equal(t, 200, status)
	data, _ := body["data"].(map[string]interface{})
	assert.EqualValues(t, 1, data["pending"])
	assert.EqualValues(t, 0, data["accepted"])
	assert.EqualValues(t, 0, data["expired"])
}
