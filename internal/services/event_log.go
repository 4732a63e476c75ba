package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/depflow/depflow/internal/models"
	"github.com/depflow/depflow/internal/store"
	"github.com/depflow/depflow/pkg/logger"
)

var (
	eventLogStore store.Store
	eventLogMu    sync.RWMutex
)

// InitEventLogger wires the pipeline event log to the injected store.
func InitEventLogger(st store.Store) {
	eventLogMu.Lock()
	defer eventLogMu.Unlock()
	eventLogStore = st
}

func LogPipelineInfo(module, action, message string, extra interface{}) {
	writeEventLog("info", module, action, message, extra)
}

func LogPipelineWarning(module, action, message string, extra interface{}) {
	writeEventLog("warning", module, action, message, extra)
}

func LogPipelineError(module, action, message string, extra interface{}) {
	writeEventLog("error", module, action, message, extra)
}

func writeEventLog(level, module, action, message string, extra interface{}) {
	eventLogMu.RLock()
	st := eventLogStore
	eventLogMu.RUnlock()
	if st == nil {
		return
	}

	var extraStr string
	if extra != nil {
		if b, err := json.Marshal(extra); err == nil {
			extraStr = string(b)
		}
	}

	entry := &models.EventLog{
		Level:     level,
		Module:    module,
		Action:    action,
		Message:   message,
		Extra:     extraStr,
		CreatedAt: time.Now(),
	}
	if err := st.CreateEventLog(entry); err != nil {
		logger.Warn().Err(err).Msg("failed to persist event log entry")
	}
}

// EventLogService exposes the persisted pipeline log to the API layer.
type EventLogService struct {
	store store.Store
}

func NewEventLogService(st store.Store) *EventLogService {
	return &EventLogService{store: st}
}

func (s *EventLogService) List(f *store.EventLogFilter) ([]models.EventLog, error) {
	return s.store.ListEventLogs(f)
}

// --- retention cleanup ---

const DefaultLogRetentionDays = 30

var (
	cleanupStop chan struct{}
	cleanupOnce sync.Once
)

// StartEventLogCleanup purges event log entries older than retentionDays on
// a daily ticker.
func StartEventLogCleanup(st store.Store, retentionDays int) {
	if retentionDays <= 0 {
		retentionDays = DefaultLogRetentionDays
	}

	cleanupOnce.Do(func() {
		cleanupStop = make(chan struct{})
		ticker := time.NewTicker(24 * time.Hour)

		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					cutoff := time.Now().AddDate(0, 0, -retentionDays)
					purged, err := st.PurgeEventLogsBefore(cutoff)
					if err != nil {
						logger.Errorf("[EventLog] Cleanup failed: %v", err)
						continue
					}
					if purged > 0 {
						logger.Infof("[EventLog] Purged %d entries older than %d days", purged, retentionDays)
					}
				case <-cleanupStop:
					return
				}
			}
		}()

		logger.Infof("[EventLog] Cleanup scheduler started, retention: %d days", retentionDays)
	})
}

// StopEventLogCleanup stops the retention scheduler.
func StopEventLogCleanup() {
	if cleanupStop != nil {
		close(cleanupStop)
		cleanupStop = nil
	}
}
