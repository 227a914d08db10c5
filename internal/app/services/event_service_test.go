package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
	"github.com/yigit/moderator/internal/pkg/apperrors"
)

func moderatorIDs(ev *dto.EventResponse) map[int64]bool {
	ids := map[int64]bool{}
	for _, m := range ev.Moderators {
		ids[m.ID] = true
	}
	return ids
}

func TestCreateEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ev, notices, err := f.svc.EventService.Save(ctx, f.owner, "", &dto.SaveEventRequest{
		Name:         "  Café Q&A  ",
		ModeratorIDs: []int64{f.moderator.ID, f.moderator.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ev.Slug != "cafe-q-a" || ev.Name != "Café Q&A" {
		t.Fatalf("unexpected name/slug %q/%q", ev.Name, ev.Slug)
	}
	if ev.CreatedByID == nil || *ev.CreatedByID != f.owner.ID {
		t.Fatalf("expected owner as creator, got %v", ev.CreatedByID)
	}
	mods := moderatorIDs(ev)
	if len(mods) != 2 || !mods[f.owner.ID] || !mods[f.moderator.ID] {
		t.Fatalf("expected owner and moderator as moderators, got %+v", ev.Moderators)
	}
	if len(notices) != 1 || notices[0].Message != "Event successfully created." {
		t.Fatalf("unexpected notices %+v", notices)
	}

	second, _, err := f.svc.EventService.Save(ctx, f.owner, "", &dto.SaveEventRequest{Name: "Cafe Q A"})
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if second.Slug != "cafe-q-a-2" {
		t.Fatalf("expected numeric suffix, got %s", second.Slug)
	}
}

func TestCreateEventValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	if _, _, err := f.svc.EventService.Save(ctx, f.attendee, "", &dto.SaveEventRequest{Name: "Secret", IsNDA: true}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected non-member NDA event to fail validation, got %v", err)
	}
	if _, _, err := f.svc.EventService.Save(ctx, f.nda, "", &dto.SaveEventRequest{Name: "Secret", IsNDA: true}); err != nil {
		t.Fatalf("expected NDA member to create NDA event, got %v", err)
	}
	if _, _, err := f.svc.EventService.Save(ctx, f.owner, "", &dto.SaveEventRequest{Name: "Ghosts", ModeratorIDs: []int64{4242}}); !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("expected unknown moderator to fail validation, got %v", err)
	}
}

func TestEditEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Editable")

	req := &dto.SaveEventRequest{Name: "Edited", IsModerated: true, ModeratorIDs: []int64{f.moderator.ID}}
	if _, _, err := f.svc.EventService.Save(ctx, f.attendee, ev.Slug, req); !errors.Is(err, apperrors.ErrEventNotFound) {
		t.Fatalf("expected outsider edit to be not found, got %v", err)
	}

	edited, notices, err := f.svc.EventService.Save(ctx, f.owner, ev.Slug, req)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Name != "Edited" || edited.Slug != ev.Slug || !edited.IsModerated {
		t.Fatalf("edit not applied: %+v", edited)
	}
	mods := moderatorIDs(edited)
	if len(mods) != 1 || !mods[f.moderator.ID] {
		t.Fatalf("expected moderators replaced, got %+v", edited.Moderators)
	}
	if len(notices) != 1 || notices[0].Message != "Event successfully edited." {
		t.Fatalf("unexpected notices %+v", notices)
	}

	// owner is no longer a moderator
	if _, _, err := f.svc.EventService.Save(ctx, f.owner, ev.Slug, req); !errors.Is(err, apperrors.ErrEventNotFound) {
		t.Fatalf("expected removed moderator to lose access, got %v", err)
	}
}

func TestArchiveIsOneWay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Once")
	f.archive(t, ev)

	_, _, err := f.svc.EventService.Save(ctx, f.root, ev.Slug, &dto.SaveEventRequest{Name: "Once", Archived: false})
	if !errors.Is(err, apperrors.ErrUnarchiveForbidden) {
		t.Fatalf("expected ErrUnarchiveForbidden, got %v", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Doomed")

	if _, err := f.svc.EventService.Delete(ctx, f.attendee, ev.Slug); !errors.Is(err, apperrors.ErrEventNotFound) {
		t.Fatalf("expected outsider delete to be not found, got %v", err)
	}
	notices, err := f.svc.EventService.Delete(ctx, f.owner, ev.Slug)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(notices) != 1 || notices[0].Message != "Event successfully deleted." {
		t.Fatalf("unexpected notices %+v", notices)
	}
	if _, err := f.svc.EventService.Show(ctx, f.owner, ev.Slug); !errors.Is(err, apperrors.ErrEventNotFound) {
		t.Fatalf("expected deleted event to be gone, got %v", err)
	}
}

func TestListOpenEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	public := f.createEvent(t, "Public", moderated)
	f.createEvent(t, "Secret", ndaOnly)
	old := f.createEvent(t, "Old")
	f.archive(t, old)

	a := f.submit(t, f.attendee, public.Slug, "a", false)
	b := f.submit(t, f.attendee, public.Slug, "b", false)
	f.submit(t, f.attendee, public.Slug, "c", false)
	if _, _, err := f.svc.QuestionService.Moderate(ctx, f.owner, public.Slug, a.ID, &dto.ModerateRequest{Decision: models.DecisionAccept}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := f.svc.QuestionService.Moderate(ctx, f.owner, public.Slug, b.ID, &dto.ModerateRequest{Decision: models.DecisionReject}); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.EventService.ListOpen(ctx, f.attendee)
	if err != nil {
		t.Fatal(err)
	}
	if len(list.Events) != 1 || list.Events[0].Slug != public.Slug {
		t.Fatalf("expected only the public event, got %+v", list.Events)
	}
	want := models.EventStats{Approved: 1, Rejected: 1, Pending: 1}
	if list.Events[0].Stats == nil || *list.Events[0].Stats != want {
		t.Fatalf("expected stats %+v, got %+v", want, list.Events[0].Stats)
	}

	for _, viewer := range []*models.User{f.nda, f.root} {
		list, err = f.svc.EventService.ListOpen(ctx, viewer)
		if err != nil {
			t.Fatal(err)
		}
		if len(list.Events) != 2 {
			t.Fatalf("expected %s to see 2 open events, got %d", viewer.Username, len(list.Events))
		}
	}
}

func TestListArchivedPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, name := range []string{"One", "Two", "Three"} {
		f.archive(t, f.createEvent(t, name))
	}
	f.archive(t, f.createEvent(t, "Hidden", ndaOnly))

	page, err := f.svc.EventService.ListArchived(ctx, f.attendee, 9, 0)
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.CurrentPage != 2 || page.Pagination.TotalPages != 2 || page.Pagination.TotalItems != 3 {
		t.Fatalf("expected clamp to last page 2 of 2, got %+v", page.Pagination)
	}
	if len(page.Events) != 1 || page.Events[0].Name != "One" {
		t.Fatalf("expected the oldest event on the last page, got %+v", page.Events)
	}

	page, err = f.svc.EventService.ListArchived(ctx, f.root, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if page.Pagination.TotalItems != 4 || len(page.Events) != 4 || page.Events[0].Name != "Hidden" {
		t.Fatalf("expected superuser to see all 4 newest first, got %+v", page.Events)
	}
}

func TestShowEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Show", moderated, voting)

	low := f.submit(t, f.owner, ev.Slug, "low", false)
	high := f.submit(t, f.owner, ev.Slug, "high", false)
	f.submit(t, f.attendee, ev.Slug, "pending", false)
	anon := f.submit(t, f.owner, ev.Slug, "anon", true)
	for _, voter := range []*models.User{f.attendee, f.nda} {
		if _, _, err := f.svc.QuestionService.ToggleVote(ctx, voter, high.ID); err != nil {
			t.Fatal(err)
		}
	}
	if _, _, err := f.svc.QuestionService.ToggleVote(ctx, f.attendee, anon.ID); err != nil {
		t.Fatal(err)
	}

	detail, err := f.svc.EventService.Show(ctx, f.admin, ev.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if !detail.Open || detail.CanModerate {
		t.Fatalf("unexpected flags open=%v canModerate=%v", detail.Open, detail.CanModerate)
	}
	got := []int64{}
	for _, q := range detail.Questions {
		got = append(got, q.ID)
		if q.VoteCount != nil {
			t.Fatalf("expected admin without ownership to see no counts, got %d", *q.VoteCount)
		}
	}
	want := []int64{high.ID, anon.ID, low.ID}
	if len(got) != len(want) {
		t.Fatalf("expected accepted questions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected admin ordering %v, got %v", want, got)
		}
	}
	for _, q := range detail.Questions {
		if q.ID == anon.ID && q.AskedBy != nil {
			t.Fatal("expected anonymous question to hide its asker")
		}
		if q.ID == low.ID && (q.AskedBy == nil || q.AskedBy.ID != f.owner.ID) {
			t.Fatalf("expected asker on named question, got %+v", q.AskedBy)
		}
	}

	detail, err = f.svc.EventService.Show(ctx, f.owner, ev.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if !detail.CanModerate {
		t.Fatal("expected owner to moderate")
	}
	// identity shuffle keeps store order for non-admins
	if detail.Questions[0].ID != low.ID || detail.Questions[0].VoteCount == nil || *detail.Questions[0].VoteCount != 0 {
		t.Fatalf("expected store order with counts for the creator, got %+v", detail.Questions[0])
	}
}

func TestShowEventHidesNDA(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	secret := f.createEvent(t, "Secret", ndaOnly)

	if _, err := f.svc.EventService.Show(ctx, f.attendee, secret.Slug); !errors.Is(err, apperrors.ErrEventNotFound) {
		t.Fatalf("expected outsider to get not found, got %v", err)
	}
	for _, viewer := range []*models.User{f.nda, f.root} {
		if _, err := f.svc.EventService.Show(ctx, viewer, secret.Slug); err != nil {
			t.Fatalf("expected %s to view NDA event, got %v", viewer.Username, err)
		}
	}
}

func TestPendingQuestions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ev := f.createEvent(t, "Queue", moderated)
	pending := f.submit(t, f.attendee, ev.Slug, "wait", false)
	f.submit(t, f.owner, ev.Slug, "auto", false)

	if _, err := f.svc.EventService.PendingQuestions(ctx, f.attendee, ev.Slug); !errors.Is(err, apperrors.ErrEventNotFound) {
		t.Fatalf("expected outsider to get not found, got %v", err)
	}
	queue, err := f.svc.EventService.PendingQuestions(ctx, f.owner, ev.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if len(queue.Questions) != 1 || queue.Questions[0].ID != pending.ID || !queue.Questions[0].HasContactInfo {
		t.Fatalf("expected one pending question with contact info, got %+v", queue.Questions)
	}
}
