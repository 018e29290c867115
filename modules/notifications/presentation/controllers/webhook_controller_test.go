package controllers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/modules/notifications/services"
	"github.com/finenotify/finenotify/pkg/application"
	"github.com/finenotify/finenotify/pkg/eventbus"
	"github.com/finenotify/finenotify/pkg/logging"
)

func newTestApp() application.Application {
	logger := logging.ConsoleLogger(logrus.PanicLevel)
	return application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
}

func newWebhookRouter(t *testing.T, opts WebhookControllerOptions) (*mux.Router, *services.StatusService) {
	t.Helper()
	app := newTestApp()
	service := services.NewStatusService(app.EventBus())
	router := mux.NewRouter()
	NewWebhookController(app, service, opts).Register(router)
	return router, service
}

func TestWebhookController_VerifyHandshake(t *testing.T) {
	router, _ := newWebhookRouter(t, WebhookControllerOptions{VerifyToken: "sesame"})

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid handshake echoes challenge",
			query:      "hub.mode=subscribe&hub.verify_token=sesame&hub.challenge=1158201444",
			wantStatus: http.StatusOK,
			wantBody:   "1158201444",
		},
		{
			name:       "wrong token is forbidden",
			query:      "hub.mode=subscribe&hub.verify_token=guess&hub.challenge=1158201444",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong mode is forbidden",
			query:      "hub.mode=unsubscribe&hub.verify_token=sesame&hub.challenge=1158201444",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing token is forbidden",
			query:      "hub.mode=subscribe&hub.challenge=1158201444",
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/webhooks/whatsapp?"+tt.query, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBody != "" {
				require.Equal(t, tt.wantBody, rr.Body.String())
			}
		})
	}
}

func postCallback(router *mux.Router, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestWebhookController_RecordsStatuses(t *testing.T) {
	router, service := newWebhookRouter(t, WebhookControllerOptions{})

	rr := postCallback(router, `{
		"object": "whatsapp_business_account",
		"entry": [{
			"id": "entry-1",
			"changes": [{
				"field": "messages",
				"value": {
					"messaging_product": "whatsapp",
					"statuses": [
						{"id": "wamid.1", "status": "delivered", "recipient_id": "59891234567"},
						{"id": "wamid.2", "status": "sent"}
					]
				}
			}]
		}]
	}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "EVENT_RECEIVED", rr.Body.String())

	status, ok := service.GetStatus("wamid.1")
	require.True(t, ok)
	require.Equal(t, delivery.StatusDelivered, status)
	status, ok = service.GetStatus("wamid.2")
	require.True(t, ok)
	require.Equal(t, delivery.StatusSent, status)
}

func TestWebhookController_PartialShapesAreNoOps(t *testing.T) {
	router, service := newWebhookRouter(t, WebhookControllerOptions{})

	bodies := []string{
		`{"object": "whatsapp_business_account"}`,
		`{"object": "whatsapp_business_account", "entry": []}`,
		`{"object": "whatsapp_business_account", "entry": [{"changes": []}]}`,
		`{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {}}]}]}`,
		`{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {"statuses": [{"id": "", "status": ""}]}}]}]}`,
		`{"object": "whatsapp_business_account", "entry": [{"changes": [{"value": {"messages": [{"from": "59891234567", "type": "text", "text": {"body": "hola"}}]}}]}]}`,
	}
	for _, body := range bodies {
		rr := postCallback(router, body)
		require.Equal(t, http.StatusOK, rr.Code, body)
		require.Equal(t, "EVENT_RECEIVED", rr.Body.String(), body)
	}
	require.Equal(t, 0, service.Len())
}

func TestWebhookController_MalformedBody(t *testing.T) {
	router, _ := newWebhookRouter(t, WebhookControllerOptions{})
	rr := postCallback(router, `{not json`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestWebhookController_UnrecognizedObject(t *testing.T) {
	router, _ := newWebhookRouter(t, WebhookControllerOptions{})
	rr := postCallback(router, `{"object": "instagram"}`)
	require.Equal(t, http.StatusNotFound, rr.Code)
}
