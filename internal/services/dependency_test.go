package services

import (
	"testing"

	"github.com/depflow/depflow/internal/models"
	"github.com/depflow/depflow/internal/store"
)

func TestCreateDefaultsAndSentinels(t *testing.T) {
	svc := NewDependencyService(store.NewMemoryStore(), NewHub())

	dep, err := svc.Create(&CreateDependencyRequest{Title: "API contract"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if dep.Status != models.StatusInProgress {
		t.Errorf("default status = %q, want %q", dep.Status, models.StatusInProgress)
	}
	if dep.SourceTeam != UnknownTeam || dep.TargetART != UnknownART {
		t.Errorf("sentinels not applied: %q / %q", dep.SourceTeam, dep.TargetART)
	}
	if dep.IsCrossART {
		t.Error("two unknown release trains must not be cross-ART")
	}
}

func TestCreateRejectsInvalidStatus(t *testing.T) {
	svc := NewDependencyService(store.NewMemoryStore(), NewHub())

	if _, err := svc.Create(&CreateDependencyRequest{Title: "x", Status: "Blocked"}); err == nil {
		t.Error("raw tracker status should be rejected on manual create")
	}
}

func TestCreateClampsRisk(t *testing.T) {
	svc := NewDependencyService(store.NewMemoryStore(), NewHub())

	high := 250
	dep, err := svc.Create(&CreateDependencyRequest{Title: "x", RiskScore: &high})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if dep.RiskScore != 100 {
		t.Errorf("risk = %d, want clamped to 100", dep.RiskScore)
	}
}

func TestUpdatePartialEdit(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewDependencyService(st, NewHub())

	dep, err := svc.Create(&CreateDependencyRequest{
		Title:      "API contract",
		SourceART:  "ART Alpha",
		TargetART:  "ART Alpha",
		SourceTeam: "Platform",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	newART := "ART Beta"
	status := models.StatusAtRisk
	updated, err := svc.Update(dep.ID, &UpdateDependencyRequest{TargetART: &newART, Status: &status})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "API contract" || updated.SourceTeam != "Platform" {
		t.Error("untouched fields must survive a partial edit")
	}
	if updated.Status != models.StatusAtRisk {
		t.Errorf("status = %q", updated.Status)
	}
	if !updated.IsCrossART {
		t.Error("cross-ART flag must be recomputed after ART edit")
	}
}

func TestDeleteBroadcastsAndHides(t *testing.T) {
	st := store.NewMemoryStore()
	hub := NewHub()
	svc := NewDependencyService(st, hub)

	dep, err := svc.Create(&CreateDependencyRequest{Title: "x"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	ch := hub.Subscribe("t")
	defer hub.Unsubscribe("t")

	if err := svc.Delete(dep.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.Get(dep.ID); err != store.ErrNotFound {
		t.Errorf("deleted row lookup err = %v, want ErrNotFound", err)
	}

	select {
	case msg := <-ch:
		if msg.Data.Action != "deleted" {
			t.Errorf("action = %q, want deleted", msg.Data.Action)
		}
	default:
		t.Error("delete did not broadcast")
	}

	if err := svc.Delete(dep.ID); err != store.ErrNotFound {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
