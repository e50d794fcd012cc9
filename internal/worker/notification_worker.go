package worker

import (
	"github.com/ticketflow/ticketflow/internal/service"
)

// StartNotificationWorker subscribes the notification service to the
// dispatcher. Handlers run inline with the publishing request.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
