package comments

import (
	"sync"

	"go.uber.org/zap"
)

const (
	ChangeStatusEvent = "calypso_comment_management_mail_change_status"
	StatGroup         = "calypso_comment_management_mail"
)

type Analytics interface {
	RecordTracksEvent(name string, props map[string]any)
	BumpStat(group, name string)
}

// LogAnalytics writes analytics to the log and keeps stat counters in memory.
type LogAnalytics struct {
	logger *zap.Logger

	mu    sync.Mutex
	stats map[string]int
}

func NewLogAnalytics(logger *zap.Logger) *LogAnalytics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogAnalytics{logger: logger.Named("analytics"), stats: make(map[string]int)}
}

func (a *LogAnalytics) RecordTracksEvent(name string, props map[string]any) {
	a.logger.Info("tracks event", zap.String("event", name), zap.Any("props", props))
}

func (a *LogAnalytics) BumpStat(group, name string) {
	a.mu.Lock()
	a.stats[group+"/"+name]++
	a.mu.Unlock()
	a.logger.Debug("bump stat", zap.String("group", group), zap.String("name", name))
}

// Stats returns a copy of the counters keyed "group/name".
func (a *LogAnalytics) Stats() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.stats))
	for k, v := range a.stats {
		out[k] = v
	}
	return out
}

func recordStatusChange(a Analytics, status string) {
	a.RecordTracksEvent(ChangeStatusEvent, map[string]any{"status": status})
	a.BumpStat(StatGroup, "comment_status_changed_to_"+status)
}
