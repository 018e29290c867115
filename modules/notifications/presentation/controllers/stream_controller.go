package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/modules/notifications/services"
	"github.com/finenotify/finenotify/pkg/application"
	"github.com/finenotify/finenotify/pkg/metrics"
	"github.com/finenotify/finenotify/pkg/ws"
)

// StreamController owns the realtime observer channel. Every new connection
// gets one full-store snapshot so late joiners reach consistency without
// history replay; after that, recorded state changes are fanned out
// best-effort through the hub.
type StreamController struct {
	app      application.Application
	service  *services.StatusService
	hub      *ws.Hub
	basePath string
}

func NewStreamController(app application.Application, service *services.StatusService) application.Controller {
	c := &StreamController{
		app:      app,
		service:  service,
		basePath: "/ws",
	}
	c.hub = ws.NewHub(&ws.HubOptions{
		Logger: app.Logger(),
		OnConnect: func(r *http.Request, hub *ws.Hub, conn *ws.Connection) error {
			metrics.ObserversConnected.Inc()
			return c.sendSnapshot(conn)
		},
		OnDisconnect: func(conn *ws.Connection) {
			metrics.ObserversConnected.Dec()
		},
	})
	app.EventBus().Subscribe(c.onStatusRecorded)
	return c
}

func (c *StreamController) Key() string {
	return c.basePath
}

func (c *StreamController) Register(r *mux.Router) {
	r.Handle(c.basePath, c.hub).Methods(http.MethodGet)
}

func (c *StreamController) sendSnapshot(conn *ws.Connection) error {
	frame, err := json.Marshal(delivery.NewInitialFrame(c.service.AllStatuses()))
	if err != nil {
		return errors.Wrap(err, "stream: encode snapshot")
	}
	return conn.SendMessage(frame)
}

func (c *StreamController) onStatusRecorded(event *services.StatusRecordedEvent) {
	frame, err := json.Marshal(delivery.NewUpdateFrame(event.MessageID, event.Status))
	if err != nil {
		c.app.Logger().WithError(err).Error("stream: encode update")
		return
	}
	for _, conn := range c.hub.Connections() {
		if err := conn.SendMessage(frame); err != nil {
			metrics.BroadcastsDropped.Inc()
			c.app.Logger().WithError(err).Debug("stream: observer skipped")
			continue
		}
		metrics.BroadcastsDelivered.Inc()
	}
}
