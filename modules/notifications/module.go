package notifications

import (
	"github.com/finenotify/finenotify/modules/notifications/presentation/controllers"
	"github.com/finenotify/finenotify/modules/notifications/services"
	"github.com/finenotify/finenotify/pkg/application"
	"github.com/finenotify/finenotify/pkg/configuration"
)

// Register wires the delivery-status module into the application: the
// status store, the webhook ingestion surface, the query API and the
// realtime observer channel.
func Register(app application.Application, conf *configuration.Configuration) *services.StatusService {
	statusService := services.NewStatusService(app.EventBus())

	app.RegisterControllers(
		controllers.NewWebhookController(app, statusService, controllers.WebhookControllerOptions{
			VerifyToken: conf.WhatsApp.VerifyToken,
			AppSecret:   conf.WhatsApp.AppSecret,
			ReplayTTL:   conf.WhatsApp.WebhookReplayTTL,
		}),
		controllers.NewStatusController(app, statusService),
		controllers.NewStreamController(app, statusService),
		controllers.NewHealthController(),
	)
	return statusService
}
