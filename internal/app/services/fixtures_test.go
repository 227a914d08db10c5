package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/app/repositories"
	"github.com/yigit/moderator/internal/app/repositories/memory"
	"github.com/yigit/moderator/internal/pkg/auth"
)

type sentMail struct {
	to, subject, body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type published struct {
	eventID int64
	kind    string
	id      int64
	askedBy string
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
}

func (r *recordingPublisher) PublishQuestion(eventID int64, kind string, q dto.QuestionResponse) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := published{eventID: eventID, kind: kind, id: q.ID}
	if q.AskedBy != nil {
		p.askedBy = q.AskedBy.Username
	}
	r.sent = append(r.sent, p)
}

func (r *recordingPublisher) take() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sent
	r.sent = nil
	return out
}

var errSMTPDown = errors.New("smtp down")

var fixedNow = time.Date(2024, 9, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	repos     *repositories.Repositories
	store     *memory.Store
	sender    *recordingSender
	publisher *recordingPublisher
	svc       *Services
	jwt       *auth.JWTService

	owner, moderator, attendee, nda, root, admin *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos, store := memory.NewRepositories()
	f := &fixture{repos: repos, store: store, sender: &recordingSender{}, publisher: &recordingPublisher{}}
	f.jwt = auth.NewJWTService(auth.JWTConfig{SecretKey: "test", AccessTokenExp: time.Hour, TokenIssuer: "moderator.test"})
	f.svc = NewServices(repos, f.sender, f.jwt, Options{
		PageSize:       2,
		DevLoginActive: true,
		// identity shuffle keeps store order so assertions stay deterministic
		Shuffle:        func(int, func(i, j int)) {},
		Now:            func() time.Time { return fixedNow },
		Publisher:      f.publisher,
	}, zerolog.Nop())

	recent := fixedNow.Add(-time.Hour)
	f.owner = f.addUser(t, &models.User{Username: "owner", Email: "owner@example.com", IsActive: true, LastLoginAt: &recent})
	f.moderator = f.addUser(t, &models.User{Username: "mod", Email: "mod@example.com", IsActive: true, LastLoginAt: &recent})
	f.attendee = f.addUser(t, &models.User{Username: "attendee", Email: "attendee@example.com", IsActive: true, LastLoginAt: &recent})
	f.nda = f.addUser(t, &models.User{Username: "nda", Email: "nda@example.com", IsActive: true, Profile: models.Profile{IsNDAMember: true}})
	f.root = f.addUser(t, &models.User{Username: "root", Email: "root@example.com", IsActive: true, IsSuperuser: true})
	f.admin = f.addUser(t, &models.User{Username: "admin", Email: "admin@example.com", IsActive: true, Profile: models.Profile{IsAdmin: true}})
	return f
}

func (f *fixture) addUser(t *testing.T, u *models.User) *models.User {
	t.Helper()
	if _, err := f.repos.UserRepository.Upsert(context.Background(), u); err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	return u
}

type eventOpt func(*dto.SaveEventRequest)

func moderated(r *dto.SaveEventRequest)  { r.IsModerated = true }
func voting(r *dto.SaveEventRequest)     { r.UsersCanVote = true }
func ndaOnly(r *dto.SaveEventRequest)    { r.IsNDA = true }
func archivedEv(r *dto.SaveEventRequest) { r.Archived = true }
func withMods(ids ...int64) eventOpt     { return func(r *dto.SaveEventRequest) { r.ModeratorIDs = ids } }

// createEvent saves an event as owner, who becomes creator and moderator
func (f *fixture) createEvent(t *testing.T, name string, opts ...eventOpt) *dto.EventResponse {
	t.Helper()
	req := &dto.SaveEventRequest{Name: name}
	for _, o := range opts {
		o(req)
	}
	creator := f.owner
	if req.IsNDA {
		creator = f.root
	}
	resp, _, err := f.svc.EventService.Save(context.Background(), creator, "", req)
	if err != nil {
		t.Fatalf("create event %q: %v", name, err)
	}
	return resp
}

func (f *fixture) submit(t *testing.T, actor *models.User, slug, text string, anonymous bool) *dto.QuestionResponse {
	t.Helper()
	q, _, err := f.svc.QuestionService.Submit(context.Background(), actor, slug, &dto.SubmitQuestionRequest{Question: text, IsAnonymous: anonymous})
	if err != nil {
		t.Fatalf("submit %q: %v", text, err)
	}
	return q
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func questionFilter(eventID int64) repositories.QuestionFilter {
	return repositories.QuestionFilter{EventID: eventID}
}
