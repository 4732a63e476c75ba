package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/depflow/depflow/internal/models"
)

func TestHubSubscribePublish(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("client-1")

	if hub.ClientCount() != 1 {
		t.Errorf("ClientCount = %d, expected 1", hub.ClientCount())
	}

	dep := &models.Dependency{ID: 7, Title: "a → b", Status: models.StatusBlocked}
	hub.PublishDependency("created", dep)

	select {
	case msg := <-ch:
		if msg.Type != "dependencyUpdate" {
			t.Errorf("Type = %q", msg.Type)
		}
		if msg.Data.Action != "created" {
			t.Errorf("Action = %q", msg.Data.Action)
		}
		if msg.Data.Dependency == nil || msg.Data.Dependency.ID != 7 {
			t.Errorf("Dependency = %+v", msg.Data.Dependency)
		}
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("client-1")
	hub.Unsubscribe("client-1")

	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, expected 0", hub.ClientCount())
	}

	select {
	case _, open := <-ch:
		if open {
			t.Error("channel should be closed after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}

	// Unsubscribing twice is harmless
	hub.Unsubscribe("client-1")
}

func TestHubSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	hub.Subscribe("slow")

	// Fill past the buffer; Publish must not block
	done := make(chan struct{})
	go func() {
		for i := 0; i < 250; i++ {
			hub.PublishImported(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow client")
	}
}

func TestBroadcastMessageWireShape(t *testing.T) {
	msg := BroadcastMessage{
		Type: "dependencyUpdate",
		Data: BroadcastData{Action: "imported", Count: 12},
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["type"] != "dependencyUpdate" {
		t.Errorf("type = %v", decoded["type"])
	}
	data, ok := decoded["data"].(map[string]interface{})
	if !ok {
		t.Fatal("data missing")
	}
	if data["action"] != "imported" {
		t.Errorf("action = %v", data["action"])
	}
	if data["count"] != float64(12) {
		t.Errorf("count = %v", data["count"])
	}
	if _, present := data["dependency"]; present {
		t.Error("dependency should be omitted when nil")
	}
}
