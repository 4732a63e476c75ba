package services

import (
	"github.com/depflow/depflow/internal/store"
)

// DashboardService aggregates the summary numbers shown above the
// dependency board.
type DashboardService struct {
	store store.Store
}

func NewDashboardService(st store.Store) *DashboardService {
	return &DashboardService{store: st}
}

func (s *DashboardService) Stats() (*store.DependencyStats, error) {
	return s.store.DependencyStats()
}
