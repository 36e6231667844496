package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditCleanup is the task type for pruning old audit entries.
	TaskTypeAuditCleanup = "audit:cleanup"
)

// AuditCleanupPayload carries the retention window for a cleanup run.
type AuditCleanupPayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditCleanupTask constructs an Asynq task.
func NewAuditCleanupTask(payload AuditCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditCleanup, data), nil
}

// AuditCleanupHandler returns the handler for TaskTypeAuditCleanup tasks.
// The scheduled run mirrors the admin console's manual cleanup action.
func AuditCleanupHandler(recorder *audit.Recorder, logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload AuditCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.RetentionDays <= 0 {
			payload.RetentionDays = 30
		}
		retention := time.Duration(payload.RetentionDays) * 24 * time.Hour
		removed, err := recorder.PruneOlderThan(ctx, retention)
		if err != nil {
			logger.Error("audit cleanup", slog.Any("error", err))
			return err
		}
		if removed > 0 {
			recorder.SystemEvent(ctx, audit.EventLogCleanup, "scheduler", map[string]any{
				"removed_entries": removed,
				"retention_days":  payload.RetentionDays,
			})
		}
		logger.Info("audit cleanup finished",
			slog.Int("removed", removed),
			slog.Int("retention_days", payload.RetentionDays))
		return nil
	}
}
