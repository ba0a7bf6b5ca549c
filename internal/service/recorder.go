package service

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/zap"

	"backoffice/internal/logger"
	"backoffice/internal/model"
	"backoffice/internal/repository"
)

// Change event actions published to list views
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// Notifier fans change events out to connected clients. *websocket.Hub implements it.
type Notifier interface {
	Publish(collection, action string, id uint)
}

// recorder writes the audit trail and announces changes. Both are best effort: a failure
// is logged and never fails the operation that triggered it.
type recorder struct {
	auditRepo repository.AuditRepository
	notifier  Notifier
	logger    *zap.Logger
}

func newRecorder(auditRepo repository.AuditRepository, notifier Notifier, log *zap.Logger) recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return recorder{auditRepo: auditRepo, notifier: notifier, logger: log}
}

func (r recorder) audit(ctx context.Context, action string, entityID uint, entityName string, details interface{}) {
	if r.auditRepo == nil {
		return
	}
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		RequestID:  logger.GetRequestID(ctx),
		Action:     action,
		EntityID:   strconv.FormatUint(uint64(entityID), 10),
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if err := r.auditRepo.Log(ctx, &entry); err != nil {
		r.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.Uint("entity_id", entityID),
			zap.Error(err),
		)
	}
}

func (r recorder) notify(collection, event string, id uint) {
	if r.notifier == nil {
		return
	}
	r.notifier.Publish(collection, event, id)
}
