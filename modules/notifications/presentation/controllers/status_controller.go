package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/modules/notifications/services"
	"github.com/finenotify/finenotify/pkg/application"
	"github.com/finenotify/finenotify/pkg/httpapi"
)

// StatusController exposes the read-only query surface over the status
// store. Unknown ids are answered with the explicit "unknown" sentinel,
// never an error.
type StatusController struct {
	app      application.Application
	service  *services.StatusService
	basePath string
}

func NewStatusController(app application.Application, service *services.StatusService) application.Controller {
	return &StatusController{
		app:      app,
		service:  service,
		basePath: "/api/statuses",
	}
}

func (c *StatusController) Key() string {
	return c.basePath
}

func (c *StatusController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.listStatuses).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.getStatus).Methods(http.MethodGet)
}

func (c *StatusController) listStatuses(w http.ResponseWriter, _ *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"statuses": c.service.AllStatuses(),
	})
}

func (c *StatusController) getStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	status, ok := c.service.GetStatus(id)
	if !ok {
		status = delivery.StatusUnknown
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"messageId": id,
		"status":    status,
	})
}
