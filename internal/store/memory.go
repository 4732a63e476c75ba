package store

import (
	"sort"
	"sync"
	"time"

	"github.com/depflow/depflow/internal/models"
)

// memoryStore keeps everything in process. Selected with driver "memory";
// used for demo environments without a database and as the test double.
type memoryStore struct {
	mu sync.RWMutex

	deps     map[uint]*models.Dependency
	links    map[uint]*models.DependencyLink
	trackers map[uint]*models.TrackerConnection
	runs     map[uint]*models.ImportRun
	events   []models.EventLog

	nextDepID     uint
	nextLinkID    uint
	nextTrackerID uint
	nextRunID     uint
	nextEventID   uint
}

func NewMemoryStore() Store {
	return &memoryStore{
		deps:          make(map[uint]*models.Dependency),
		links:         make(map[uint]*models.DependencyLink),
		trackers:      make(map[uint]*models.TrackerConnection),
		runs:          make(map[uint]*models.ImportRun),
		nextDepID:     1,
		nextLinkID:    1,
		nextTrackerID: 1,
		nextRunID:     1,
		nextEventID:   1,
	}
}

func (s *memoryStore) matches(d *models.Dependency, f *DependencyFilter) bool {
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.SourceTeam != "" && d.SourceTeam != f.SourceTeam {
		return false
	}
	if f.TargetTeam != "" && d.TargetTeam != f.TargetTeam {
		return false
	}
	if f.ART != "" && d.SourceART != f.ART && d.TargetART != f.ART {
		return false
	}
	if f.JiraID != "" && d.JiraID != f.JiraID {
		return false
	}
	if f.CrossART != nil && d.IsCrossART != *f.CrossART {
		return false
	}
	return true
}

// --- Dependencies ---

func (s *memoryStore) ListDependencies(f *DependencyFilter) ([]models.Dependency, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.Dependency
	for _, d := range s.deps {
		if s.matches(d, f) {
			all = append(all, *d)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].RiskScore != all[j].RiskScore {
			return all[i].RiskScore > all[j].RiskScore
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	page, pageSize := normalizePage(f)
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []models.Dependency{}, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *memoryStore) GetDependency(id uint) (*models.Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.deps[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (s *memoryStore) CreateDependency(d *models.Dependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d.ID = s.nextDepID
	s.nextDepID++
	now := time.Now()
	d.CreatedAt = now
	d.UpdatedAt = now

	copied := *d
	s.deps[d.ID] = &copied
	return nil
}

func (s *memoryStore) UpdateDependency(d *models.Dependency) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deps[d.ID]; !ok {
		return ErrNotFound
	}
	d.UpdatedAt = time.Now()
	copied := *d
	s.deps[d.ID] = &copied
	return nil
}

func (s *memoryStore) DeleteDependency(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deps[id]; !ok {
		return ErrNotFound
	}
	delete(s.deps, id)
	return nil
}

func (s *memoryStore) FindByJiraID(jiraID string) ([]models.Dependency, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []models.Dependency
	for _, d := range s.deps {
		if d.JiraID == jiraID {
			found = append(found, *d)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func (s *memoryStore) ExistsByJiraIDAndTitle(jiraID, title string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.deps {
		if d.JiraID == jiraID && d.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) DependencyStats() (*DependencyStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &DependencyStats{ByStatus: make(map[string]int64)}
	teamCounts := make(map[string]int64)
	var riskSum int64

	for _, d := range s.deps {
		stats.Total++
		stats.ByStatus[d.Status]++
		if d.IsCrossART {
			stats.CrossART++
		}
		if d.RiskScore >= 70 {
			stats.HighRisk++
		}
		riskSum += int64(d.RiskScore)
		teamCounts[d.SourceTeam]++
	}

	if stats.Total > 0 {
		stats.AverageRisk = float64(riskSum) / float64(stats.Total)
	}

	for team, count := range teamCounts {
		stats.TopSourceTeams = append(stats.TopSourceTeams, TeamCount{Team: team, Count: count})
	}
	sort.Slice(stats.TopSourceTeams, func(i, j int) bool {
		if stats.TopSourceTeams[i].Count != stats.TopSourceTeams[j].Count {
			return stats.TopSourceTeams[i].Count > stats.TopSourceTeams[j].Count
		}
		return stats.TopSourceTeams[i].Team < stats.TopSourceTeams[j].Team
	})
	if len(stats.TopSourceTeams) > 5 {
		stats.TopSourceTeams = stats.TopSourceTeams[:5]
	}

	return stats, nil
}

// --- Dependency links ---

func (s *memoryStore) CreateLink(l *models.DependencyLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l.ID = s.nextLinkID
	s.nextLinkID++
	l.CreatedAt = time.Now()

	copied := *l
	s.links[l.ID] = &copied
	return nil
}

func (s *memoryStore) FindLinks(sourceKey, targetKey string) ([]models.DependencyLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []models.DependencyLink
	for _, l := range s.links {
		if l.SourceIssueKey == sourceKey && l.TargetIssueKey == targetKey {
			found = append(found, *l)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

func (s *memoryStore) DeleteLinksForDependency(dependencyID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for linkID, l := range s.links {
		if l.DependencyID == dependencyID {
			delete(s.links, linkID)
		}
	}
	return nil
}

// --- Tracker connections ---

func (s *memoryStore) ListTrackers() ([]models.TrackerConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []models.TrackerConnection
	for _, t := range s.trackers {
		all = append(all, *t)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all, nil
}

func (s *memoryStore) GetTracker(id uint) (*models.TrackerConnection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trackers[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *t
	return &copied, nil
}

func (s *memoryStore) CreateTracker(t *models.TrackerConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t.ID = s.nextTrackerID
	s.nextTrackerID++
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	copied := *t
	s.trackers[t.ID] = &copied
	return nil
}

func (s *memoryStore) UpdateTracker(t *models.TrackerConnection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trackers[t.ID]; !ok {
		return ErrNotFound
	}
	t.UpdatedAt = time.Now()
	copied := *t
	s.trackers[t.ID] = &copied
	return nil
}

func (s *memoryStore) DeleteTracker(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trackers[id]; !ok {
		return ErrNotFound
	}
	delete(s.trackers, id)
	return nil
}

// --- Import runs ---

func (s *memoryStore) CreateImportRun(r *models.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextRunID
	s.nextRunID++
	r.CreatedAt = time.Now()

	copied := *r
	s.runs[r.ID] = &copied
	return nil
}

func (s *memoryStore) UpdateImportRun(r *models.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.ID]; !ok {
		return ErrNotFound
	}
	copied := *r
	s.runs[r.ID] = &copied
	return nil
}

func (s *memoryStore) ListImportRuns(limit int) ([]models.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	var all []models.ImportRun
	for _, r := range s.runs {
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// --- Event log ---

func (s *memoryStore) CreateEventLog(e *models.EventLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = s.nextEventID
	s.nextEventID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.events = append(s.events, *e)
	return nil
}

func (s *memoryStore) ListEventLogs(f *EventLogFilter) ([]models.EventLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	var matched []models.EventLog
	for i := len(s.events) - 1; i >= 0 && len(matched) < limit; i-- {
		e := s.events[i]
		if f.Level != "" && e.Level != f.Level {
			continue
		}
		if f.Module != "" && e.Module != f.Module {
			continue
		}
		matched = append(matched, e)
	}
	return matched, nil
}

func (s *memoryStore) PurgeEventLogsBefore(cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []models.EventLog
	var purged int64
	for _, e := range s.events {
		if e.CreatedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	s.events = kept
	return purged, nil
}

func (s *memoryStore) Ping() error { return nil }

func (s *memoryStore) Close() error { return nil }
