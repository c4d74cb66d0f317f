package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tickethub/helpdesk/internal/api/http/handlers"
	"github.com/tickethub/helpdesk/internal/auth"
	"github.com/tickethub/helpdesk/internal/config"
	"github.com/tickethub/helpdesk/internal/events"
	"github.com/tickethub/helpdesk/internal/idempotency"
	"github.com/tickethub/helpdesk/internal/observability"
	"github.com/tickethub/helpdesk/internal/ratelimit"
	"github.com/tickethub/helpdesk/internal/repository"
	"github.com/tickethub/helpdesk/internal/service"
)

func newTestApp(t *testing.T, rateLimit int) *fiber.App {
	t.Helper()

	cfg := config.Config{
		App: config.AppConfig{Env: "test"},
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4,
		},
	}

	commentRepo := repository.NewMemoryCommentRepository()
	ticketRepo := repository.NewMemoryTicketRepository(commentRepo)
	userRepo := repository.NewMemoryUserRepository()
	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(cfg, userRepo)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  ticketRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
		Dispatcher:  dispatcher,
	})
	commentService := service.NewCommentService(ticketRepo, commentRepo, dispatcher)

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Env, nil),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Comments:       handlers.NewCommentsHandler(commentService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), userRepo),
		RateLimit:      NewRateLimitMiddleware(ratelimit.NewMemoryLimiter(rateLimit, time.Minute)),
		Idempotency:    NewIdempotencyMiddleware(idempotency.NewMemoryLedger(time.Hour)),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, payload any, headers map[string]string) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	decoded := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func registerUser(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()
	status, body := doJSON(t, app, "POST", "/register", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "longenough",
		"role":     role,
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status, "register failed: %v", body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t, 60)

	status, body := doJSON(t, app, "GET", "/health", "", nil, nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["environment"])
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "uptime")
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t, 60)

	status, body := doJSON(t, app, "POST", "/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "longenough",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	user, _ := body["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, "user", user["role"])
	assert.NotContains(t, user, "password_hash", "credential never serialized")

	status, body = doJSON(t, app, "POST", "/login", "", map[string]any{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))

	status, body = doJSON(t, app, "POST", "/register", "", map[string]any{
		"username": "alice",
		"email":    "alice2@example.com",
		"password": "longenough",
	}, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "FIELD_DUPLICATE", errorCode(body))
}

func TestTicketsRequireToken(t *testing.T) {
	app := newTestApp(t, 60)

	status, body := doJSON(t, app, "GET", "/tickets", "", nil, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "TOKEN_REQUIRED", errorCode(body))

	status, body = doJSON(t, app, "GET", "/tickets", "not-a-jwt", nil, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "INVALID_TOKEN", errorCode(body))
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t, 60)
	userToken := registerUser(t, app, "alice", "")
	agentToken := registerUser(t, app, "bob", "agent")

	status, body := doJSON(t, app, "POST", "/tickets", userToken, map[string]any{
		"title":       "Login Issue",
		"description": "cannot sign in",
		"priority":    "high",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	ticket, _ := body["ticket"].(map[string]any)
	ticketID, _ := ticket["id"].(string)
	require.NotEmpty(t, ticketID)
	assert.Equal(t, "open", ticket["status"])
	assert.Equal(t, float64(1), ticket["version"])
	assert.Equal(t, false, ticket["is_sla_breached"])

	createdAt, err := time.Parse(time.RFC3339Nano, ticket["created_at"].(string))
	require.NoError(t, err)
	dueAt, err := time.Parse(time.RFC3339Nano, ticket["due_at"].(string))
	require.NoError(t, err)
	assert.True(t, dueAt.Equal(createdAt.Add(24*time.Hour)), "due_at is exactly created_at plus 24h")

	// A plain user may not triage.
	status, body = doJSON(t, app, "PATCH", "/tickets/"+ticketID, userToken, map[string]any{
		"status":  "resolved",
		"version": 1,
	}, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", errorCode(body))

	status, body = doJSON(t, app, "PATCH", "/tickets/"+ticketID, agentToken, map[string]any{
		"status":  "in_progress",
		"version": 1,
	}, nil)
	require.Equal(t, nethttp.StatusOK, status)
	ticket, _ = body["ticket"].(map[string]any)
	assert.Equal(t, "in_progress", ticket["status"])
	assert.Equal(t, float64(2), ticket["version"])

	// Stale version loses with the current version in the envelope.
	status, body = doJSON(t, app, "PATCH", "/tickets/"+ticketID, agentToken, map[string]any{
		"status":  "resolved",
		"version": 1,
	}, nil)
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "VERSION_CONFLICT", errorCode(body))
	errObj, _ := body["error"].(map[string]any)
	details, _ := errObj["details"].(map[string]any)
	assert.Equal(t, float64(2), details["current_version"])

	// Missing version is a field error.
	status, body = doJSON(t, app, "PATCH", "/tickets/"+ticketID, agentToken, map[string]any{
		"status": "resolved",
	}, nil)
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "FIELD_REQUIRED", errorCode(body))

	status, _ = doJSON(t, app, "GET", "/tickets/"+ticketID, userToken, nil, nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, body = doJSON(t, app, "GET", "/tickets/unknown-id", agentToken, nil, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestTicketVisibilityOverHTTP(t *testing.T) {
	app := newTestApp(t, 60)
	aliceToken := registerUser(t, app, "alice", "")
	carolToken := registerUser(t, app, "carol", "")

	status, body := doJSON(t, app, "POST", "/tickets", aliceToken, map[string]any{
		"title":       "private",
		"description": "alice only",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	ticket, _ := body["ticket"].(map[string]any)
	ticketID, _ := ticket["id"].(string)

	status, body = doJSON(t, app, "GET", "/tickets/"+ticketID, carolToken, nil, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", errorCode(body))

	status, body = doJSON(t, app, "GET", "/tickets", carolToken, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(0), body["total_returned"])
	assert.Nil(t, body["next_offset"])
}

func TestIdempotentCreateReplay(t *testing.T) {
	app := newTestApp(t, 60)
	token := registerUser(t, app, "alice", "")
	headers := map[string]string{"Idempotency-Key": "retry-123"}

	status, first := doJSON(t, app, "POST", "/tickets", token, map[string]any{
		"title":       "Login Issue",
		"description": "cannot sign in",
	}, headers)
	require.Equal(t, nethttp.StatusCreated, status)
	firstTicket, _ := first["ticket"].(map[string]any)

	// Replay returns the original response even with a different payload.
	status, second := doJSON(t, app, "POST", "/tickets", token, map[string]any{
		"title":       "Completely different",
		"description": "different body",
	}, headers)
	require.Equal(t, nethttp.StatusCreated, status)
	secondTicket, _ := second["ticket"].(map[string]any)
	assert.Equal(t, firstTicket["id"], secondTicket["id"])
	assert.Equal(t, firstTicket["title"], secondTicket["title"])

	// Only one ticket exists.
	status, listing := doJSON(t, app, "GET", "/tickets", token, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(1), listing["total_returned"])

	// Another identity using the same literal key creates its own ticket.
	otherToken := registerUser(t, app, "carol", "")
	status, third := doJSON(t, app, "POST", "/tickets", otherToken, map[string]any{
		"title":       "Carol's issue",
		"description": "unrelated",
	}, headers)
	require.Equal(t, nethttp.StatusCreated, status)
	thirdTicket, _ := third["ticket"].(map[string]any)
	assert.NotEqual(t, firstTicket["id"], thirdTicket["id"])
}

func TestFailedCreateIsNotRecorded(t *testing.T) {
	app := newTestApp(t, 60)
	token := registerUser(t, app, "alice", "")
	headers := map[string]string{"Idempotency-Key": "retry-456"}

	status, body := doJSON(t, app, "POST", "/tickets", token, map[string]any{
		"description": "missing title",
	}, headers)
	require.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "FIELD_REQUIRED", errorCode(body))

	// The failed attempt left no record; the retry goes through.
	status, _ = doJSON(t, app, "POST", "/tickets", token, map[string]any{
		"title":       "fixed",
		"description": "now valid",
	}, headers)
	assert.Equal(t, nethttp.StatusCreated, status)
}

func TestCommentEndpoints(t *testing.T) {
	app := newTestApp(t, 60)
	token := registerUser(t, app, "alice", "")

	status, body := doJSON(t, app, "POST", "/tickets", token, map[string]any{
		"title":       "t",
		"description": "d",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	ticket, _ := body["ticket"].(map[string]any)
	ticketID, _ := ticket["id"].(string)

	status, body = doJSON(t, app, "POST", "/tickets/"+ticketID+"/comments", token, map[string]any{
		"text": "first comment",
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status)
	comment, _ := body["comment"].(map[string]any)
	commentID, _ := comment["id"].(string)
	require.NotEmpty(t, commentID)

	status, body = doJSON(t, app, "POST", "/tickets/"+ticketID+"/comments", token, map[string]any{
		"text":      "a reply",
		"parent_id": commentID,
	}, nil)
	require.Equal(t, nethttp.StatusCreated, status)

	status, body = doJSON(t, app, "GET", "/tickets/"+ticketID+"/comments", token, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	comments, _ := body["comments"].([]any)
	require.Len(t, comments, 2)
	firstListed, _ := comments[0].(map[string]any)
	assert.Equal(t, "first comment", firstListed["text"])

	status, body = doJSON(t, app, "POST", "/tickets/missing/comments", token, map[string]any{
		"text": "into the void",
	}, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestRateLimitCutoffOverHTTP(t *testing.T) {
	app := newTestApp(t, 3)
	token := registerUser(t, app, "alice", "")

	// Registration consumed one IP-keyed slot; the identity window is fresh.
	for i := 0; i < 3; i++ {
		status, _ := doJSON(t, app, "GET", "/tickets", token, nil, nil)
		require.Equal(t, nethttp.StatusOK, status, "request %d within the window", i+1)
	}

	req := httptest.NewRequest("GET", "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, nethttp.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "RATE_LIMITED", errorCode(body))
	errObj, _ := body["error"].(map[string]any)
	details, _ := errObj["details"].(map[string]any)
	assert.Contains(t, details, "retry_after")
}

func TestRejectedRequestsStillCount(t *testing.T) {
	app := newTestApp(t, 2)
	token := registerUser(t, app, "alice", "")

	// A failing request burns a window slot like a successful one.
	status, _ := doJSON(t, app, "GET", "/tickets/does-not-exist", token, nil, nil)
	require.Equal(t, nethttp.StatusNotFound, status)

	status, _ = doJSON(t, app, "GET", "/tickets", token, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)

	status, _ = doJSON(t, app, "GET", "/tickets", token, nil, nil)
	assert.Equal(t, nethttp.StatusTooManyRequests, status)
}

func TestListPaginationOverHTTP(t *testing.T) {
	app := newTestApp(t, 60)
	token := registerUser(t, app, "alice", "")

	for i := 0; i < 5; i++ {
		status, _ := doJSON(t, app, "POST", "/tickets", token, map[string]any{
			"title":       fmt.Sprintf("ticket %d", i),
			"description": "d",
		}, nil)
		require.Equal(t, nethttp.StatusCreated, status)
	}

	status, body := doJSON(t, app, "GET", "/tickets?limit=2", token, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(2), body["total_returned"])
	assert.Equal(t, float64(2), body["next_offset"])

	status, body = doJSON(t, app, "GET", "/tickets?limit=2&offset=4", token, nil, nil)
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, float64(1), body["total_returned"])
	assert.Nil(t, body["next_offset"])
}
