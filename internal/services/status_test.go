package services

import (
	"testing"

	"github.com/depflow/depflow/internal/models"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"Done", models.StatusCompleted},
		{"done", models.StatusCompleted},
		{"Completed", models.StatusCompleted},
		{"Resolved", models.StatusCompleted},
		{"Won't Do — Resolved", models.StatusCompleted},
		{"Blocked", models.StatusBlocked},
		{"BLOCKED ON VENDOR", models.StatusBlocked},
		{"At Risk", models.StatusAtRisk},
		{"Impediment raised", models.StatusAtRisk},
		{"In Progress", models.StatusInProgress},
		{"To Do", models.StatusInProgress},
		{"", models.StatusInProgress},
		{"Selected for Development", models.StatusInProgress},
	}

	for _, tc := range cases {
		if got := MapStatus(tc.raw); got != tc.want {
			t.Errorf("MapStatus(%q) = %q, expected %q", tc.raw, got, tc.want)
		}
	}
}

func TestMapStatusPrecedence(t *testing.T) {
	// done/complete/resolved win over block, block wins over risk
	if got := MapStatus("Done but Blocked"); got != models.StatusCompleted {
		t.Errorf("MapStatus(\"Done but Blocked\") = %q, expected completed", got)
	}
	if got := MapStatus("Blocked - at risk"); got != models.StatusBlocked {
		t.Errorf("MapStatus(\"Blocked - at risk\") = %q, expected blocked", got)
	}
}

func TestMapStatusTotality(t *testing.T) {
	valid := map[string]bool{
		models.StatusInProgress: true,
		models.StatusAtRisk:     true,
		models.StatusBlocked:    true,
		models.StatusCompleted:  true,
	}

	inputs := []string{"", "xyzzy", "DONE", "blocked", "risk", "???", "issue blocked by done work"}
	for _, in := range inputs {
		if !valid[MapStatus(in)] {
			t.Errorf("MapStatus(%q) returned value outside the status enum", in)
		}
	}
}
