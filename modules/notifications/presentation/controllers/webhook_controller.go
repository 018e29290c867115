package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/modules/notifications/services"
	"github.com/finenotify/finenotify/pkg/application"
	"github.com/finenotify/finenotify/pkg/httpapi"
	"github.com/finenotify/finenotify/pkg/metrics"
	"github.com/finenotify/finenotify/pkg/middleware"
	"github.com/finenotify/finenotify/pkg/webhooks"
)

const (
	recognizedObject = "whatsapp_business_account"
	// Fixed acknowledgement token the provider expects on recognized
	// callbacks.
	ackToken = "EVENT_RECEIVED"
)

type WebhookControllerOptions struct {
	VerifyToken string
	AppSecret   string
	ReplayTTL   time.Duration
}

// WebhookController terminates the provider's webhook: the one-time
// verification handshake and the asynchronous delivery status callbacks.
type WebhookController struct {
	app      application.Application
	service  *services.StatusService
	opts     WebhookControllerOptions
	basePath string
}

func NewWebhookController(app application.Application, service *services.StatusService, opts WebhookControllerOptions) application.Controller {
	return &WebhookController{
		app:      app,
		service:  service,
		opts:     opts,
		basePath: "/webhooks/whatsapp",
	}
}

func (c *WebhookController) Key() string {
	return c.basePath
}

func (c *WebhookController) Register(r *mux.Router) {
	var verifier webhooks.SignatureVerifier = webhooks.NoopVerifier{}
	if c.opts.AppSecret != "" {
		verifier = webhooks.NewHMACVerifier(c.opts.AppSecret)
	}
	var protector webhooks.ReplayProtector = webhooks.NoopProtector{}
	if c.opts.ReplayTTL > 0 {
		protector = middleware.NewWebhookReplayProtector(c.opts.ReplayTTL)
	}

	sub := webhooks.Bind(r, c.basePath, verifier, protector)
	sub.HandleFunc("", c.verify).Methods(http.MethodGet)
	sub.HandleFunc("", c.receive).Methods(http.MethodPost)
}

// verify answers the provider's challenge handshake. The challenge value is
// echoed back verbatim only when the mode flag and shared token match.
func (c *WebhookController) verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode != "subscribe" || token == "" || token != c.opts.VerifyToken {
		c.app.Logger().WithField("mode", mode).Warn("webhook verification rejected")
		_ = httpapi.WriteError(w, http.StatusForbidden, "WEBHOOK_FORBIDDEN", "verification token mismatch", nil)
		return
	}

	c.app.Logger().Info("webhook verified")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(challenge))
}

// receive ingests a callback envelope. Partial or unexpected shapes degrade
// to no-ops; a structural failure is contained and answered with a 500 so
// the provider retries instead of the endpoint dying.
func (c *WebhookController) receive(w http.ResponseWriter, r *http.Request) {
	logger := c.app.Logger()

	defer func() {
		if rec := recover(); rec != nil {
			logger.Errorf("webhook ingestion panicked: %v", rec)
			metrics.CallbacksReceived.WithLabelValues("fault").Inc()
			_ = httpapi.WriteError(w, http.StatusInternalServerError, "WEBHOOK_FAULT", "callback processing failed", nil)
		}
	}()

	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		metrics.CallbacksReceived.WithLabelValues("malformed").Inc()
		_ = httpapi.WriteError(w, http.StatusBadRequest, "WEBHOOK_BAD_REQUEST", "malformed callback body", nil)
		return
	}

	if envelope.Object != recognizedObject {
		metrics.CallbacksReceived.WithLabelValues("unrecognized").Inc()
		_ = httpapi.WriteError(w, http.StatusNotFound, "WEBHOOK_NOT_FOUND", "unrecognized callback object", nil)
		return
	}

	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			c.ingestChange(logger, change)
		}
	}

	metrics.CallbacksReceived.WithLabelValues("ok").Inc()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ackToken))
}

func (c *WebhookController) ingestChange(logger *logrus.Logger, change webhookChange) {
	for _, notice := range change.Value.Statuses {
		if notice.ID == "" || notice.Status == "" {
			continue
		}
		c.service.RecordStatus(notice.ID, delivery.Status(notice.Status))
		logger.WithFields(logrus.Fields{
			"message-id": notice.ID,
			"status":     notice.Status,
		}).Debug("status recorded")
	}

	// Inbound user replies carry no delivery state. Hook point for future
	// handling; for now they are only logged.
	for _, msg := range change.Value.Messages {
		logger.WithFields(logrus.Fields{
			"from": msg.From,
			"type": msg.Type,
		}).Info("inbound message ignored")
	}
}
