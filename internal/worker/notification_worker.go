package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/campusmatch/internal/events"
	"github.com/spec-kit/campusmatch/internal/service"
)

// StartNotificationWorker subscribes the offline-push handler and the
// registration log handler to dispatcher and returns the service backing them.
func StartNotificationWorker(dispatcher events.Dispatcher, push service.PushSender, logger *zap.Logger) *service.NotificationService {
	if dispatcher == nil {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notifications := service.NewNotificationService(dispatcher, logger.Named("notifications"), push)
	notifications.RegisterHandlers()
	logger.Debug("notification worker started")
	return notifications
}
