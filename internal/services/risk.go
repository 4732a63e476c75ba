package services

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/jira"
	"github.com/depflow/depflow/pkg/logger"
)

// RiskPayload is the normalized input handed to the external risk engine.
type RiskPayload struct {
	SourceStatus string     `json:"sourceStatus"`
	TargetStatus string     `json:"targetStatus"`
	DueDate      *time.Time `json:"dueDate"`
	IsCrossArt   bool       `json:"isCrossArt"`
	IssueType    string     `json:"issueType"`
}

type riskResult struct {
	RiskScore *int `json:"riskScore"`
}

// RiskScorer produces an advisory 0-100 risk score for a dependency pair.
// The primary path invokes the configured external collaborator; any failure
// there degrades to a deterministic local formula and is never surfaced as
// an ingestion error.
type RiskScorer struct {
	cfg     config.RiskEngineConfig
	timeout time.Duration
	now     func() time.Time
}

func NewRiskScorer(cfg config.RiskEngineConfig) *RiskScorer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RiskScorer{cfg: cfg, timeout: timeout, now: time.Now}
}

// Score computes the risk score for the (source, target) issue pair.
func (s *RiskScorer) Score(ctx context.Context, source, target *jira.Issue) int {
	crossART := IsCrossART(source, target)

	if s.cfg.Command != "" {
		payload := RiskPayload{
			SourceStatus: source.Status,
			TargetStatus: target.Status,
			DueDate:      source.DueDate,
			IsCrossArt:   crossART,
			IssueType:    source.Type,
		}
		if score, err := s.invokeEngine(ctx, &payload); err == nil {
			return score
		} else {
			GetMetrics().ScorerFailures.Add(1)
			logger.Warn().Err(err).
				Str("source", source.Key).
				Str("target", target.Key).
				Msg("risk engine failed, using fallback formula")
		}
	}

	return s.Fallback(source, target)
}

// invokeEngine runs the external collaborator with the JSON payload on stdin
// and reads a {"riskScore": n} object from stdout, bounded by the configured
// timeout.
func (s *RiskScorer) invokeEngine(ctx context.Context, payload *RiskPayload) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, s.cfg.Command, s.cfg.Args...)
	cmd.Stdin = bytes.NewReader(input)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0, err
	}

	var result riskResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return 0, err
	}
	if result.RiskScore == nil || *result.RiskScore < 0 || *result.RiskScore > 100 {
		return 0, errMalformedScore
	}

	return *result.RiskScore, nil
}

var errMalformedScore = &scorerError{"risk engine returned malformed or out-of-range score"}

type scorerError struct{ msg string }

func (e *scorerError) Error() string { return e.msg }

// Fallback is the deterministic additive formula used whenever the external
// engine is unavailable. Starting from a base of 50:
//
//	+30 target status contains "block"
//	+20 source due date is in the past
//	+10 source due date is within the next 7 days (and not overdue)
//	+15 source and target release trains differ
//
// clamped to [0, 100].
func (s *RiskScorer) Fallback(source, target *jira.Issue) int {
	score := 50

	if strings.Contains(strings.ToLower(target.Status), "block") {
		score += 30
	}

	if source.DueDate != nil {
		now := s.now()
		if source.DueDate.Before(now) {
			score += 20
		} else if source.DueDate.Before(now.Add(7 * 24 * time.Hour)) {
			score += 10
		}
	}

	if IsCrossART(source, target) {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
