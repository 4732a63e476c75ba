package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/depflow/depflow/internal/config"
	"github.com/depflow/depflow/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormStore backs the Store interface with a relational database.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore opens the configured database and migrates the schema.
func NewGormStore(cfg *config.DatabaseConfig) (Store, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Dependency{},
		&models.DependencyLink{},
		&models.TrackerConnection{},
		&models.ImportRun{},
		&models.EventLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &gormStore{db: db}, nil
}

// --- Dependencies ---

func (s *gormStore) ListDependencies(f *DependencyFilter) ([]models.Dependency, int64, error) {
	page, pageSize := normalizePage(f)

	var deps []models.Dependency
	var total int64

	query := s.db.Model(&models.Dependency{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.SourceTeam != "" {
		query = query.Where("source_team = ?", f.SourceTeam)
	}
	if f.TargetTeam != "" {
		query = query.Where("target_team = ?", f.TargetTeam)
	}
	if f.ART != "" {
		query = query.Where("source_art = ? OR target_art = ?", f.ART, f.ART)
	}
	if f.JiraID != "" {
		query = query.Where("jira_id = ?", f.JiraID)
	}
	if f.CrossART != nil {
		query = query.Where("is_cross_art = ?", *f.CrossART)
	}

	query.Count(&total)

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).Limit(pageSize).Order("risk_score DESC, created_at DESC").Find(&deps).Error; err != nil {
		return nil, 0, err
	}

	return deps, total, nil
}

func (s *gormStore) GetDependency(id uint) (*models.Dependency, error) {
	var dep models.Dependency
	if err := s.db.First(&dep, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &dep, nil
}

func (s *gormStore) CreateDependency(d *models.Dependency) error {
	return s.db.Create(d).Error
}

func (s *gormStore) UpdateDependency(d *models.Dependency) error {
	return s.db.Save(d).Error
}

func (s *gormStore) DeleteDependency(id uint) error {
	result := s.db.Delete(&models.Dependency{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) FindByJiraID(jiraID string) ([]models.Dependency, error) {
	var deps []models.Dependency
	if err := s.db.Where("jira_id = ?", jiraID).Order("id").Find(&deps).Error; err != nil {
		return nil, err
	}
	return deps, nil
}

func (s *gormStore) ExistsByJiraIDAndTitle(jiraID, title string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Dependency{}).
		Where("jira_id = ? AND title = ?", jiraID, title).
		Count(&count).Error
	return count > 0, err
}

func (s *gormStore) DependencyStats() (*DependencyStats, error) {
	stats := &DependencyStats{ByStatus: make(map[string]int64)}

	if err := s.db.Model(&models.Dependency{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	type statusRow struct {
		Status string
		Count  int64
	}
	var rows []statusRow
	if err := s.db.Model(&models.Dependency{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		stats.ByStatus[r.Status] = r.Count
	}

	s.db.Model(&models.Dependency{}).Where("is_cross_art = ?", true).Count(&stats.CrossART)
	s.db.Model(&models.Dependency{}).Where("risk_score >= ?", 70).Count(&stats.HighRisk)

	var avg *float64
	s.db.Model(&models.Dependency{}).Select("avg(risk_score)").Scan(&avg)
	if avg != nil {
		stats.AverageRisk = *avg
	}

	var teams []TeamCount
	if err := s.db.Model(&models.Dependency{}).
		Select("source_team as team, count(*) as count").
		Group("source_team").
		Order("count DESC").
		Limit(5).
		Scan(&teams).Error; err != nil {
		return nil, err
	}
	stats.TopSourceTeams = teams

	return stats, nil
}

// --- Dependency links ---

func (s *gormStore) CreateLink(l *models.DependencyLink) error {
	return s.db.Create(l).Error
}

func (s *gormStore) FindLinks(sourceKey, targetKey string) ([]models.DependencyLink, error) {
	var links []models.DependencyLink
	if err := s.db.Where("source_issue_key = ? AND target_issue_key = ?", sourceKey, targetKey).
		Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (s *gormStore) DeleteLinksForDependency(dependencyID uint) error {
	return s.db.Where("dependency_id = ?", dependencyID).
		Delete(&models.DependencyLink{}).Error
}

// --- Tracker connections ---

func (s *gormStore) ListTrackers() ([]models.TrackerConnection, error) {
	var trackers []models.TrackerConnection
	if err := s.db.Order("created_at DESC").Find(&trackers).Error; err != nil {
		return nil, err
	}
	return trackers, nil
}

func (s *gormStore) GetTracker(id uint) (*models.TrackerConnection, error) {
	var tracker models.TrackerConnection
	if err := s.db.First(&tracker, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tracker, nil
}

func (s *gormStore) CreateTracker(t *models.TrackerConnection) error {
	return s.db.Create(t).Error
}

func (s *gormStore) UpdateTracker(t *models.TrackerConnection) error {
	return s.db.Save(t).Error
}

func (s *gormStore) DeleteTracker(id uint) error {
	result := s.db.Delete(&models.TrackerConnection{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Import runs ---

func (s *gormStore) CreateImportRun(r *models.ImportRun) error {
	return s.db.Create(r).Error
}

func (s *gormStore) UpdateImportRun(r *models.ImportRun) error {
	return s.db.Save(r).Error
}

func (s *gormStore) ListImportRuns(limit int) ([]models.ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []models.ImportRun
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// --- Event log ---

func (s *gormStore) CreateEventLog(e *models.EventLog) error {
	return s.db.Create(e).Error
}

func (s *gormStore) ListEventLogs(f *EventLogFilter) ([]models.EventLog, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := s.db.Model(&models.EventLog{})
	if f.Level != "" {
		query = query.Where("level = ?", f.Level)
	}
	if f.Module != "" {
		query = query.Where("module = ?", f.Module)
	}

	var logs []models.EventLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *gormStore) PurgeEventLogsBefore(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&models.EventLog{})
	return result.RowsAffected, result.Error
}

func (s *gormStore) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *gormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
