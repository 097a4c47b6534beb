package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	schedulerRepo "gymbook/database/repository/scheduler"
	"gymbook/handlers"
	"gymbook/models"
	"gymbook/routes"
	"gymbook/services/booking"
	"gymbook/services/sessions"
	"gymbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	repo   schedulerRepo.SchedulerRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "handlers.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo, err := schedulerRepo.NewBoltSchedulerRepo(db)
	require.NoError(t, err)

	sessionSvc, err := sessions.NewDefaultSessionService(repo, nil, nil, zap.NewNop(), time.UTC, 50)
	require.NoError(t, err)
	reservationSvc, err := booking.NewDefaultReservationService(repo, nil, nil, zap.NewNop())
	require.NoError(t, err)

	r := gin.New()
	routes.RegisterRoutes(r, handlers.NewHandlerBundle(
		handlers.NewSessionHandler(sessionSvc, time.UTC),
		handlers.NewBookingHandler(reservationSvc),
	))
	return &testServer{t: t, router: r, repo: repo}
}

func token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(subject, role, time.Hour)
	require.NoError(t, err)
	return tok
}

// do sends body (if any) as JSON with a bearer token and decodes the reply into a map.
func (s *testServer) do(method, path, tok string, body interface{}) (int, map[string]interface{}) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (s *testServer) seed(id string, capacity int) {
	s.t.Helper()
	require.NoError(s.t, s.repo.CreateSessions(context.Background(), []models.Session{{
		ID:          id,
		Title:       "Spin",
		ScheduledAt: time.Date(2030, 1, 15, 9, 0, 0, 0, time.UTC),
		Duration:    45,
		Status:      models.SessionUpcoming,
		MaxCapacity: capacity,
	}}))
}

func TestCreateSessionRequiresStaff(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"title": "Yoga", "scheduledAt": "2030-01-15T09:00:00Z", "duration": 60, "maxCapacity": 10}

	code, _ := s.do(http.MethodPost, "/api/sessions", token(t, "alice", utils.RoleClient), body)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPost, "/api/sessions", "", body)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, out := s.do(http.MethodPost, "/api/sessions", token(t, "coach", utils.RoleTrainer), body)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "coach", out["trainerId"])
	assert.Equal(t, string(models.SessionUpcoming), out["status"])

	code, got := s.do(http.MethodGet, "/api/sessions/"+out["id"].(string), token(t, "alice", utils.RoleClient), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Yoga", got["title"])
}

func TestBookEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seed("s-1", 1)
	alice := token(t, "alice", utils.RoleClient)
	bob := token(t, "bob", utils.RoleClient)

	code, out := s.do(http.MethodPost, "/api/sessions/s-1/book", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "alice", out["booking"].(map[string]interface{})["clientId"])

	tests := []struct {
		name string
		path string
		tok  string
		code string
	}{
		{"full", "/api/sessions/s-1/book", bob, booking.CodeSessionFull},
		{"duplicate", "/api/sessions/s-1/book", alice, booking.CodeAlreadyBooked},
		{"unknown session", "/api/sessions/missing/book", alice, booking.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(http.MethodPost, tt.path, tt.tok, nil)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestActingForAnotherClient(t *testing.T) {
	s := newTestServer(t)
	s.seed("s-1", 5)

	code, _ := s.do(http.MethodPost, "/api/sessions/s-1/book", token(t, "alice", utils.RoleClient), gin.H{"clientId": "bob"})
	assert.Equal(t, http.StatusForbidden, code)

	code, out := s.do(http.MethodPost, "/api/sessions/s-1/book", token(t, "coach", utils.RoleTrainer), gin.H{"clientId": "bob"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "bob", out["booking"].(map[string]interface{})["clientId"])

	code, _ = s.do(http.MethodGet, "/api/clients/bob/bookings", token(t, "alice", utils.RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestReserveCancelPromotes(t *testing.T) {
	s := newTestServer(t)
	s.seed("s-1", 1)
	alice := token(t, "alice", utils.RoleClient)
	bob := token(t, "bob", utils.RoleClient)

	code, out := s.do(http.MethodPost, "/api/sessions/s-1/reserve", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.ReservationBooked, out["reservation"].(map[string]interface{})["status"])

	code, out = s.do(http.MethodPost, "/api/sessions/s-1/reserve", bob, nil)
	require.Equal(t, http.StatusOK, code)
	res := out["reservation"].(map[string]interface{})
	assert.Equal(t, models.ReservationWaitlisted, res["status"])
	assert.EqualValues(t, 1, res["position"])

	code, out = s.do(http.MethodDelete, "/api/sessions/s-1/book/alice", alice, nil)
	require.Equal(t, http.StatusOK, code)
	promoted := out["result"].(map[string]interface{})["promoted"].(map[string]interface{})
	assert.Equal(t, "bob", promoted["clientId"])

	code, out = s.do(http.MethodDelete, "/api/sessions/s-1/book/alice", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, booking.CodeNotBooked, out["code"])
}

func TestWaitlistEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.seed("s-1", 0)
	alice := token(t, "alice", utils.RoleClient)
	bob := token(t, "bob", utils.RoleClient)

	code, out := s.do(http.MethodPost, "/api/sessions/s-1/waitlist", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, out["position"])

	code, out = s.do(http.MethodPost, "/api/sessions/s-1/waitlist", bob, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, out["position"])

	code, out = s.do(http.MethodPost, "/api/sessions/s-1/waitlist", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.CodeAlreadyWaitlisted, out["code"])

	code, _ = s.do(http.MethodDelete, "/api/sessions/s-1/waitlist/alice", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, out = s.do(http.MethodDelete, "/api/sessions/s-1/waitlist/alice", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, booking.CodeNotWaitlisted, out["code"])

	entries, err := s.repo.GetSessionWaitlist(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].ClientID)
	assert.Equal(t, 1, entries[0].Position)
}

func TestWaitlistRejectsClosedSession(t *testing.T) {
	tests := []struct {
		name  string
		close func(t *testing.T, s *testServer, coach string)
	}{
		{
			name: "cancelled",
			close: func(t *testing.T, s *testServer, coach string) {
				code, _ := s.do(http.MethodPost, "/api/sessions/s-1/cancel", coach, nil)
				require.Equal(t, http.StatusOK, code)
			},
		},
		{
			name: "completed",
			close: func(t *testing.T, s *testServer, coach string) {
				for _, status := range []string{"live", "completed"} {
					code, _ := s.do(http.MethodPatch, "/api/sessions/s-1/status", coach, gin.H{"status": status})
					require.Equal(t, http.StatusOK, code)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.seed("s-1", 0)
			tt.close(t, s, token(t, "coach", utils.RoleTrainer))
			alice := token(t, "alice", utils.RoleClient)

			code, out := s.do(http.MethodPost, "/api/sessions/s-1/waitlist", alice, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, booking.CodeSessionClosed, out["code"])

			code, out = s.do(http.MethodPost, "/api/sessions/s-1/reserve", alice, nil)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Equal(t, booking.CodeSessionClosed, out["code"])

			entries, err := s.repo.GetSessionWaitlist(context.Background(), "s-1")
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestSessionLifecycleEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.seed("s-1", 3)
	coach := token(t, "coach", utils.RoleTrainer)

	code, _ := s.do(http.MethodPost, "/api/sessions/missing/cancel", coach, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, out := s.do(http.MethodPatch, "/api/sessions/s-1/status", coach, gin.H{"status": "completed"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, sessions.CodeInvalidTransition, out["code"])

	code, out = s.do(http.MethodPost, "/api/sessions/s-1/cancel", coach, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, string(models.SessionCancelled), out["status"])

	code, out = s.do(http.MethodPost, "/api/sessions/s-1/book", token(t, "alice", utils.RoleClient), nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, booking.CodeSessionClosed, out["code"])

	code, _ = s.do(http.MethodDelete, "/api/sessions/s-1", coach, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/api/sessions/s-1", coach, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCalendarAndRecurring(t *testing.T) {
	s := newTestServer(t)
	coach := token(t, "coach", utils.RoleTrainer)

	code, out := s.do(http.MethodPost, "/api/sessions/recurring", coach, gin.H{
		"session": gin.H{"title": "Bootcamp", "scheduledAt": "2030-01-01T07:00:00Z", "duration": 60, "maxCapacity": 12},
		"pattern": "weekly",
		"endDate": "2030-01-22",
	})
	require.Equal(t, http.StatusOK, code, out)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/calendar/2030-01-01/2030-01-22", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, "alice", utils.RoleClient))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var found []models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &found))
	require.Len(t, found, 4)
	assert.Empty(t, found[0].ParentSessionID)
	for _, child := range found[1:] {
		assert.Equal(t, found[0].ID, child.ParentSessionID)
	}

	code, out = s.do(http.MethodPost, "/api/sessions/recurring", coach, gin.H{
		"session": gin.H{"title": "Bootcamp", "scheduledAt": "2030-01-01T07:00:00Z", "maxCapacity": 12},
		"pattern": "hourly",
		"endDate": "2030-01-22",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, sessions.CodeUnsupportedPattern, out["code"])

	code, _ = s.do(http.MethodGet, "/api/sessions/calendar/nope/2030-01-22", coach, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestMarkAttendance(t *testing.T) {
	s := newTestServer(t)
	s.seed("s-1", 3)
	coach := token(t, "coach", utils.RoleTrainer)

	code, _ := s.do(http.MethodPost, "/api/sessions/s-1/book", token(t, "alice", utils.RoleClient), nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPost, "/api/sessions/s-1/attendance", coach, gin.H{"clientId": "alice"})
	assert.Equal(t, http.StatusBadRequest, code, "attended is required")

	code, out := s.do(http.MethodPost, "/api/sessions/s-1/attendance", coach, gin.H{"clientId": "alice", "attended": true})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["booking"].(map[string]interface{})["attended"])

	code, _ = s.do(http.MethodPost, "/api/sessions/s-1/attendance", coach, gin.H{"clientId": "bob", "attended": true})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)
	utils.CheckHealth(context.Background(), s.repo, nil)

	code, out := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, out["store"])
}
