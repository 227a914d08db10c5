package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/moderator/internal/app/models"
	"github.com/yigit/moderator/internal/app/models/dto"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	hub.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func subscriber(hub *Hub, userID, eventID int64, buffer int) *Client {
	return &Client{hub: hub, send: make(chan []byte, buffer), userID: userID, eventID: eventID, logger: zerolog.Nop()}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatalf("expected a message, channel closed")
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unexpected error decoding message: %v", err)
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
	}
	return Message{}
}

func TestHubDeliversOnlyToSubscribersOfTheEvent(t *testing.T) {
	hub, _ := startHub(t)

	same := subscriber(hub, 1, 10, 4)
	other := subscriber(hub, 2, 20, 4)
	if !hub.Register(same) || !hub.Register(other) {
		t.Fatalf("expected registration to succeed")
	}

	hub.PublishQuestion(10, "question.accepted", dto.QuestionResponse{ID: 7, Question: "Why?", State: models.StateAccepted})

	msg := receive(t, same)
	if msg.Type != "question.accepted" || msg.EventID != 10 || msg.Question.ID != 7 {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.Question.VoteCount != nil {
		t.Fatalf("expected no vote count in live payload")
	}

	select {
	case data := <-other.send:
		t.Fatalf("expected nothing for another event, got %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub, _ := startHub(t)
	c := subscriber(hub, 1, 10, 1)
	hub.Register(c)
	hub.Unregister(c)

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for close")
	}
	if n := hub.ClientsCount(10); n != 0 {
		t.Fatalf("expected 0 clients, got %d", n)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub, _ := startHub(t)
	slow := subscriber(hub, 1, 10, 1)
	hub.Register(slow)

	hub.PublishQuestion(10, "question.accepted", dto.QuestionResponse{ID: 1})
	hub.PublishQuestion(10, "question.accepted", dto.QuestionResponse{ID: 2})

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientsCount(10) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected slow client to be dropped")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubStopClosesClientsAndRejectsRegistration(t *testing.T) {
	hub, cancel := startHub(t)
	c := subscriber(hub, 1, 10, 1)
	hub.Register(c)
	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Fatalf("expected closed channel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for shutdown")
	}
	<-hub.done
	if hub.Register(subscriber(hub, 2, 10, 1)) {
		t.Fatalf("expected registration to fail after stop")
	}
	hub.Unregister(c)
}
