package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"courtside/internal/db/dbtest"
	"courtside/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiClient struct {
	t       *testing.T
	engine  *gin.Engine
	cookies []*http.Cookie
}

func (c *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, ck := range c.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	c.engine.ServeHTTP(w, req)
	if set := w.Result().Cookies(); len(set) > 0 {
		c.cookies = set
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	conn := dbtest.New(t)
	notifications := services.NewNotificationService(conn, 100)
	t.Cleanup(notifications.Close)
	cache, err := services.NewCommentCache(32, time.Minute)
	require.NoError(t, err)

	return New(Deps{
		DB:            conn,
		Auth:          services.NewAuthService(conn),
		Membership:    services.NewMembershipService(conn, notifications, cache),
		Discussions:   services.NewDiscussionService(conn, notifications, cache),
		Notifications: notifications,
		SessionSecret: "test-secret",
	})
}

func register(t *testing.T, engine *gin.Engine, name string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, engine: engine}
	w := c.do(http.MethodPost, "/api/auth/register", gin.H{"email": name + "@example.test", "username": name, "password": "password1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotEmpty(t, c.cookies)
	return c
}

func TestEventJoinFlow(t *testing.T) {
	engine := newTestEngine(t)
	owner := register(t, engine, "owner")
	alice := register(t, engine, "alice")
	bob := register(t, engine, "bob")

	w := owner.do(http.MethodPost, "/api/events", gin.H{"title": "Tuesday Futsal", "sport": "soccer", "max_players": 1})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	eventID := uint(decode(t, w)["id"].(float64))
	base := fmt.Sprintf("/api/events/%d", eventID)

	w = alice.do(http.MethodPost, base+"/join", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", decode(t, w)["status"])

	w = bob.do(http.MethodPost, base+"/join", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "waiting", decode(t, w)["status"])

	w = bob.do(http.MethodPost, base+"/join", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "already_joined", decode(t, w)["error"])

	w = alice.do(http.MethodPost, base+"/leave", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(1), body["current_players"])
	assert.NotNil(t, body["promoted_user_id"])

	w = alice.do(http.MethodPost, base+"/leave", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = alice.do(http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = owner.do(http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["current_players"])
}

func TestCommentRoutesRejectWrongHost(t *testing.T) {
	engine := newTestEngine(t)
	owner := register(t, engine, "owner")

	w := owner.do(http.MethodPost, "/api/events", gin.H{"title": "Run club", "max_players": 10})
	require.Equal(t, http.StatusCreated, w.Code)
	eventID := uint(decode(t, w)["id"].(float64))

	w = owner.do(http.MethodPost, "/api/discussions", gin.H{"title": "Shoes for trail running"})
	require.Equal(t, http.StatusCreated, w.Code)
	discussionID := uint(decode(t, w)["id"].(float64))

	w = owner.do(http.MethodPost, fmt.Sprintf("/api/discussions/%d/comments", discussionID), gin.H{"content": "Hokas"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	commentID := uint(decode(t, w)["id"].(float64))

	w = owner.do(http.MethodPost, fmt.Sprintf("/api/events/%d/comments/%d/vote", eventID, commentID), gin.H{"direction": "up"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, "wrong_entity_type", body["error"])
	assert.Equal(t, map[string]any{"kind": "discussion", "id": float64(discussionID)}, body["host"])

	w = owner.do(http.MethodPost, fmt.Sprintf("/api/discussions/%d/comments/%d/vote", discussionID, commentID), gin.H{"direction": "up"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"up_count": float64(1), "down_count": float64(0), "user_vote": "up"}, decode(t, w))

	w = owner.do(http.MethodPost, fmt.Sprintf("/api/comments/%d/vote", commentID), gin.H{"direction": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_direction", decode(t, w)["error"])

	w = owner.do(http.MethodGet, fmt.Sprintf("/api/discussions/%d/comments", discussionID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "up", items[0].(map[string]any)["user_vote"])
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	engine := newTestEngine(t)
	anon := &apiClient{t: t, engine: engine}

	w := anon.do(http.MethodPost, "/api/events", gin.H{"title": "x", "max_players": 2})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = anon.do(http.MethodGet, "/api/events", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = anon.do(http.MethodGet, "/api/events/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = anon.do(http.MethodGet, "/api/events/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "event_not_found", decode(t, w)["error"])
}

func TestLoginLogout(t *testing.T) {
	engine := newTestEngine(t)
	register(t, engine, "jamie")

	c := &apiClient{t: t, engine: engine}
	w := c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "jamie@example.test", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = c.do(http.MethodPost, "/api/auth/login", gin.H{"email": "jamie@example.test", "password": "password1"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "jamie", body["username"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "email")

	w = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = c.do(http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = c.do(http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["database"])
}

func TestNotificationStreamDisabledWithoutRedis(t *testing.T) {
	engine := newTestEngine(t)
	c := register(t, engine, "sam")
	w := c.do(http.MethodGet, "/api/notifications/stream", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
