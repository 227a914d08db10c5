package models

import "testing"

func TestQuestionStateRoundTrip(t *testing.T) {
	states := []AcceptanceState{StatePending, StateAccepted, StateRejected, StateAccepted, StatePending}

	var q Question
	if q.State() != StatePending {
		t.Fatalf("expected new question to be pending, got %s", q.State())
	}
	for _, s := range states {
		q.SetState(s)
		if got := q.State(); got != s {
			t.Fatalf("expected %s after SetState, got %s", s, got)
		}
	}
}

func TestUnknownStateStoresPending(t *testing.T) {
	var zero AcceptanceState
	if zero == StatePending {
		t.Fatalf("zero AcceptanceState must not alias %s", StatePending)
	}

	accepted := true
	q := Question{IsAccepted: &accepted}
	q.SetState(zero)
	if q.IsAccepted != nil || q.State() != StatePending {
		t.Fatalf("expected pending after SetState(%q), got %s", zero, q.State())
	}
}

func TestDecision(t *testing.T) {
	if !DecisionAccept.Valid() || !DecisionReject.Valid() {
		t.Fatalf("accept and reject must be valid decisions")
	}
	if Decision("maybe").Valid() {
		t.Fatalf("unknown decision reported valid")
	}
	if !DecisionAccept.Accepted() || DecisionReject.Accepted() {
		t.Fatalf("decision to acceptance mapping is wrong")
	}
}

func TestEventModeratorAndOwner(t *testing.T) {
	owner := int64(7)
	e := Event{CreatedByID: &owner, ModeratorIDs: []int64{7, 9}}

	if !e.HasModerator(9) || e.HasModerator(3) {
		t.Fatalf("unexpected moderator membership for %v", e.ModeratorIDs)
	}
	if !e.IsCreatedBy(7) || e.IsCreatedBy(9) {
		t.Fatalf("unexpected owner check")
	}
	if (&Event{}).IsCreatedBy(0) {
		t.Fatalf("event without owner must not match user 0")
	}
}

func TestQuestionContactInfo(t *testing.T) {
	empty := ""
	mail := "a@example.com"
	if (&Question{}).HasContactInfo() || (&Question{SubmitterContactInfo: &empty}).HasContactInfo() {
		t.Fatalf("missing contact info reported present")
	}
	if !(&Question{SubmitterContactInfo: &mail}).HasContactInfo() {
		t.Fatalf("contact info not detected")
	}
}
