package controllers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/controllers"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/app/repositories/memory"
	"github.com/yigit/moderator/internal/app/routes"
	"github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/middleware"
	"github.com/yigit/moderator/internal/pkg/auth"
	"github.com/yigit/moderator/internal/pkg/email"
	"github.com/yigit/moderator/internal/pkg/websocket"
)

type envelope struct {
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
	Notices []dto.Notice     `json:"notices"`
}

type harness struct {
	router *gin.Engine
	repos  *repositories.Repositories
	jwt    *auth.JWTService
	users  map[string]*models.User

	storageErr error
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.RegisterValidators()

	repos, _ := memory.NewRepositories()
	h := &harness{
		repos: repos,
		jwt: auth.NewJWTService(auth.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenExp: time.Hour,
			TokenIssuer:    "moderator.test",
		}),
		users: make(map[string]*models.User),
	}

	for _, u := range []*models.User{
		{Username: "owner", Email: "owner@example.com", IsActive: true},
		{Username: "attendee", Email: "attendee@example.com", IsActive: true},
		{Username: "root", Email: "root@example.com", IsActive: true, IsSuperuser: true},
		{Username: "gone", Email: "gone@example.com", IsActive: false},
	} {
		if _, err := repos.UserRepository.Upsert(context.Background(), u); err != nil {
			t.Fatalf("unexpected error creating user: %v", err)
		}
		h.users[u.Username] = u
	}

	svc := services.NewServices(repos, email.NewSender(email.SMTPConfig{}, zerolog.Nop()), h.jwt, services.Options{
		PageSize: 10,
		Shuffle:  func(int, func(i, j int)) {},
	}, zerolog.Nop())

	h.router = gin.New()
	routes.SetupRouter(h.router, routes.Controllers{
		Auth:     controllers.NewAuthController(svc.AuthService),
		Event:    controllers.NewEventController(svc.EventService),
		Question: controllers.NewQuestionController(svc.QuestionService),
		User:     controllers.NewUserController(svc.UserService),
		Export:   controllers.NewExportController(svc.ExportService),
		Live:     websocket.NewHandler(websocket.NewHub(zerolog.Nop()), svc.EventService.Visible, zerolog.Nop()),
		Health:   controllers.NewHealthController(func(context.Context) error { return h.storageErr }),
	}, middleware.NewAuthMiddleware(h.jwt, repos.UserRepository))
	return h
}

func (h *harness) event(t *testing.T, e *models.Event) *models.Event {
	t.Helper()
	owner := h.users["owner"].ID
	e.CreatedByID = &owner
	e.ModeratorIDs = []int64{owner}
	if _, err := h.repos.EventRepository.Create(context.Background(), e); err != nil {
		t.Fatalf("unexpected error creating event: %v", err)
	}
	return e
}

func (h *harness) question(t *testing.T, e *models.Event, text string) *models.Question {
	t.Helper()
	q := &models.Question{EventID: e.ID, Text: text}
	q.SetState(models.StateAccepted)
	if _, err := h.repos.QuestionRepository.Create(context.Background(), q); err != nil {
		t.Fatalf("unexpected error creating question: %v", err)
	}
	return q
}

func (h *harness) do(t *testing.T, method, path, username, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if username != "" {
		token, _, err := h.jwt.GenerateToken(h.users[username])
		if err != nil {
			t.Fatalf("unexpected error issuing token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("unexpected error decoding %s: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestRequiresBearerToken(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodGet, "/api/v1/events", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != dto.ErrorCodeUnauthorized {
		t.Fatalf("expected unauthorized error, got %+v", env.Error)
	}

	rec, _ = h.do(t, http.MethodGet, "/api/v1/events", "gone", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for inactive user, got %d", rec.Code)
	}
}

func TestRejectsExpiredAndForgedTokens(t *testing.T) {
	h := newHarness(t)

	stale := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: -time.Minute,
		TokenIssuer:    "moderator.test",
	})
	forged := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "other-secret",
		AccessTokenExp: time.Hour,
		TokenIssuer:    "moderator.test",
	})

	tests := []struct {
		name    string
		service *auth.JWTService
		code    dto.ErrorCode
	}{
		{"expired", stale, dto.ErrorCodeExpiredToken},
		{"wrong signature", forged, dto.ErrorCodeInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tt.service.GenerateToken(h.users["owner"])
			if err != nil {
				t.Fatalf("unexpected error issuing token: %v", err)
			}
			req := httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			h.router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("unexpected error decoding %s: %v", rec.Body.String(), err)
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Fatalf("expected %s, got %+v", tt.code, env.Error)
			}
		})
	}
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	h.storageErr = errors.New("database unreachable: connection refused")
	rec, env := h.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when storage is down, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != dto.ErrorCodeDatabaseError {
		t.Fatalf("expected database error, got %+v", env.Error)
	}
}

func TestVoteCountOnlyForCreatorAndSuperuser(t *testing.T) {
	h := newHarness(t)
	e := h.event(t, &models.Event{Name: "Town Hall", Slug: "town-hall", UsersCanVote: true})
	q := h.question(t, e, "Why?")
	path := "/api/v1/questions/" + itoa(q.ID) + "/vote"

	tests := []struct {
		user      string
		wantCount string
	}{
		{"attendee", ""},
		{"owner", `{"current_vote_count":2}`},
		{"root", `{"current_vote_count":3}`},
	}
	for _, tt := range tests {
		rec, env := h.do(t, http.MethodPost, path, tt.user, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", tt.user, rec.Code, rec.Body.String())
		}
		want := tt.wantCount
		if want == "" {
			want = "{}"
		}
		if string(env.Data) != want {
			t.Fatalf("%s: expected data %s, got %s", tt.user, want, env.Data)
		}
	}
}

func TestVoteOnArchivedEventIsSoftDenied(t *testing.T) {
	h := newHarness(t)
	e := h.event(t, &models.Event{Name: "Old", Slug: "old", UsersCanVote: true, Archived: true})
	q := h.question(t, e, "Still there?")

	rec, env := h.do(t, http.MethodPost, "/api/v1/questions/"+itoa(q.ID)+"/vote", "attendee", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(env.Notices) != 1 || env.Notices[0].Level != dto.NoticeWarning || env.Notices[0].Message != services.MsgVotingNotAllowed {
		t.Fatalf("expected voting warning, got %+v", env.Notices)
	}
	count, _ := h.repos.VoteRepository.CountByQuestion(context.Background(), q.ID)
	if count != 0 {
		t.Fatalf("expected no vote, got %d", count)
	}
}

func TestNDAEventHiddenFromNonMembers(t *testing.T) {
	h := newHarness(t)
	h.event(t, &models.Event{Name: "Secret", Slug: "secret", IsNDA: true})

	rec, env := h.do(t, http.MethodGet, "/api/v1/events/secret", "attendee", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != dto.ErrorCodeResourceNotFound {
		t.Fatalf("expected not found error, got %+v", env.Error)
	}

	rec, _ = h.do(t, http.MethodGet, "/api/v1/events/secret", "root", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for superuser, got %d", rec.Code)
	}
}

func TestSubmitQuestion(t *testing.T) {
	h := newHarness(t)
	h.event(t, &models.Event{Name: "Moderated", Slug: "moderated", IsModerated: true})
	h.event(t, &models.Event{Name: "Closed", Slug: "closed", Archived: true})

	rec, env := h.do(t, http.MethodPost, "/api/v1/events/moderated/questions", "attendee", `{"question":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank question, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Field != "question" {
		t.Fatalf("expected error on question field, got %+v", env.Error)
	}

	rec, env = h.do(t, http.MethodPost, "/api/v1/events/moderated/questions", "attendee", `{"question":"When is lunch?"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	want := services.MsgQuestionSubmitted + services.MsgReviewPending
	if len(env.Notices) != 1 || env.Notices[0].Message != want {
		t.Fatalf("expected pending notice, got %+v", env.Notices)
	}
	var q dto.QuestionResponse
	if err := json.Unmarshal(env.Data, &q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.State != models.StatePending {
		t.Fatalf("expected pending, got %s", q.State)
	}

	rec, _ = h.do(t, http.MethodPost, "/api/v1/events/closed/questions", "attendee", `{"question":"Too late?"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on archived event, got %d", rec.Code)
	}
}

func TestModerateRejectsForeignQuestion(t *testing.T) {
	h := newHarness(t)
	h.event(t, &models.Event{Name: "A", Slug: "a", IsModerated: true})
	other := h.event(t, &models.Event{Name: "B", Slug: "b"})
	q := h.question(t, other, "Elsewhere")

	rec, _ := h.do(t, http.MethodPost, "/api/v1/events/a/moderation/questions/"+itoa(q.ID), "owner", `{"decision":"reject"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec, _ = h.do(t, http.MethodPost, "/api/v1/events/a/moderation/questions/"+itoa(q.ID), "attendee", `{"decision":"reject"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-moderator, got %d", rec.Code)
	}

	rec, env := h.do(t, http.MethodPost, "/api/v1/events/a/moderation/questions/abc", "owner", `{"decision":"reject"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != dto.ErrorCodeInvalidRequest {
		t.Fatalf("expected invalid request error, got %+v", env.Error)
	}
}

func TestCreateEventDerivesSlug(t *testing.T) {
	h := newHarness(t)

	rec, env := h.do(t, http.MethodPost, "/api/v1/events", "attendee", `{"name":"Q&A Friday","usersCanVote":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var e dto.EventResponse
	if err := json.Unmarshal(env.Data, &e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.Slug != "q-a-friday" {
		t.Fatalf("unexpected slug %q", e.Slug)
	}
	if len(e.Moderators) != 1 || e.Moderators[0].ID != h.users["attendee"].ID {
		t.Fatalf("expected creator as moderator, got %+v", e.Moderators)
	}

	rec, _ = h.do(t, http.MethodPost, "/api/v1/events", "attendee", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d", rec.Code)
	}
}

func TestExportQuestions(t *testing.T) {
	h := newHarness(t)
	e := h.event(t, &models.Event{Name: "Town Hall", Slug: "town-hall"})
	h.question(t, e, "First")

	rec, _ := h.do(t, http.MethodGet, "/api/v1/admin/events/export?slug=town-hall", "attendee", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	rec, _ = h.do(t, http.MethodGet, "/api/v1/admin/events/export", "root", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without slugs, got %d", rec.Code)
	}

	rec, _ = h.do(t, http.MethodGet, "/api/v1/admin/events/export?slug=town-hall", "root", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="questions.csv"` {
		t.Fatalf("unexpected Content-Disposition %q", got)
	}
	if got := rec.Body.String(); got != "Town Hall\nFirst,0\n" {
		t.Fatalf("unexpected csv %q", got)
	}
}

func TestDevLoginDisabled(t *testing.T) {
	h := newHarness(t)
	rec, env := h.do(t, http.MethodPost, "/api/v1/auth/dev-login/owner", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when dev login is off, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Message != "Development login is not available" {
		t.Fatalf("unexpected error %+v", env.Error)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
