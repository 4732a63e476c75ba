package services

import (
	"fmt"
	"time"

	"github.com/depflow/depflow/internal/models"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/logger"
)

// valid statuses for manually created or edited rows
var validStatuses = map[string]bool{
	models.StatusInProgress: true,
	models.StatusAtRisk:     true,
	models.StatusBlocked:    true,
	models.StatusCompleted:  true,
}

// DependencyService backs the CRUD side of the API: rows created and edited
// by dashboard users rather than derived from tracker events.
type DependencyService struct {
	store store.Store
	hub   *Hub
}

func NewDependencyService(st store.Store, hub *Hub) *DependencyService {
	return &DependencyService{store: st, hub: hub}
}

// CreateDependencyRequest carries a manual creation. Only Title is required;
// everything else defaults.
type CreateDependencyRequest struct {
	Title       string     `json:"title" binding:"required"`
	SourceTeam  string     `json:"source_team"`
	SourceART   string     `json:"source_art"`
	TargetTeam  string     `json:"target_team"`
	TargetART   string     `json:"target_art"`
	Status      string     `json:"status"`
	RiskScore   *int       `json:"risk_score"`
	JiraID      string     `json:"jira_id"`
	DueDate     *time.Time `json:"due_date"`
	Description string     `json:"description"`
}

// UpdateDependencyRequest carries a partial edit; nil fields are untouched.
type UpdateDependencyRequest struct {
	Title       *string    `json:"title"`
	SourceTeam  *string    `json:"source_team"`
	SourceART   *string    `json:"source_art"`
	TargetTeam  *string    `json:"target_team"`
	TargetART   *string    `json:"target_art"`
	Status      *string    `json:"status"`
	RiskScore   *int       `json:"risk_score"`
	DueDate     *time.Time `json:"due_date"`
	Description *string    `json:"description"`
}

func (s *DependencyService) List(f *store.DependencyFilter) ([]models.Dependency, int64, error) {
	return s.store.ListDependencies(f)
}

func (s *DependencyService) Get(id uint) (*models.Dependency, error) {
	return s.store.GetDependency(id)
}

func (s *DependencyService) Create(req *CreateDependencyRequest) (*models.Dependency, error) {
	status := req.Status
	if status == "" {
		status = models.StatusInProgress
	}
	if !validStatuses[status] {
		return nil, fmt.Errorf("invalid status: %q", req.Status)
	}

	risk := 0
	if req.RiskScore != nil {
		risk = clampRisk(*req.RiskScore)
	}

	dep := &models.Dependency{
		Title:       req.Title,
		SourceTeam:  emptyToSentinel(req.SourceTeam, UnknownTeam),
		SourceART:   emptyToSentinel(req.SourceART, UnknownART),
		TargetTeam:  emptyToSentinel(req.TargetTeam, UnknownTeam),
		TargetART:   emptyToSentinel(req.TargetART, UnknownART),
		Status:      status,
		RiskScore:   risk,
		JiraID:      req.JiraID,
		DueDate:     req.DueDate,
		Description: req.Description,
	}
	dep.IsCrossART = dep.SourceART != dep.TargetART

	if err := s.store.CreateDependency(dep); err != nil {
		return nil, err
	}
	s.hub.PublishDependency("created", dep)
	return dep, nil
}

func (s *DependencyService) Update(id uint, req *UpdateDependencyRequest) (*models.Dependency, error) {
	dep, err := s.store.GetDependency(id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		dep.Title = *req.Title
	}
	if req.SourceTeam != nil {
		dep.SourceTeam = emptyToSentinel(*req.SourceTeam, UnknownTeam)
	}
	if req.SourceART != nil {
		dep.SourceART = emptyToSentinel(*req.SourceART, UnknownART)
	}
	if req.TargetTeam != nil {
		dep.TargetTeam = emptyToSentinel(*req.TargetTeam, UnknownTeam)
	}
	if req.TargetART != nil {
		dep.TargetART = emptyToSentinel(*req.TargetART, UnknownART)
	}
	if req.Status != nil {
		if !validStatuses[*req.Status] {
			return nil, fmt.Errorf("invalid status: %q", *req.Status)
		}
		dep.Status = *req.Status
	}
	if req.RiskScore != nil {
		dep.RiskScore = clampRisk(*req.RiskScore)
	}
	if req.DueDate != nil {
		dep.DueDate = req.DueDate
	}
	if req.Description != nil {
		dep.Description = *req.Description
	}
	dep.IsCrossART = dep.SourceART != dep.TargetART

	if err := s.store.UpdateDependency(dep); err != nil {
		return nil, err
	}
	s.hub.PublishDependency("updated", dep)
	return dep, nil
}

// Delete soft-deletes the row; it disappears from listings but stays
// recoverable in the database.
func (s *DependencyService) Delete(id uint) error {
	dep, err := s.store.GetDependency(id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDependency(id); err != nil {
		return err
	}
	// join-table rows are only meaningful while the dependency is listed
	if err := s.store.DeleteLinksForDependency(id); err != nil {
		logger.Warnf("[Dependency] Failed to clear link rows for %d: %v", id, err)
	}
	s.hub.PublishDependency("deleted", dep)
	return nil
}

func clampRisk(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func emptyToSentinel(v, sentinel string) string {
	if v == "" {
		return sentinel
	}
	return v
}
