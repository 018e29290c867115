package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
	"github.com/finenotify/finenotify/modules/notifications/services"
	"github.com/finenotify/finenotify/pkg/application"
)

func dialStream(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) delivery.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame delivery.Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func newStreamServer(t *testing.T) (*httptest.Server, *services.StatusService, application.Application) {
	t.Helper()
	app := newTestApp()
	service := services.NewStatusService(app.EventBus())
	router := mux.NewRouter()
	NewStreamController(app, service).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, service, app
}

func TestStreamController_SnapshotOnConnect(t *testing.T) {
	srv, service, _ := newStreamServer(t)
	service.RecordStatus("wamid.1", delivery.StatusSent)
	service.RecordStatus("wamid.2", delivery.StatusDelivered)

	conn := dialStream(t, srv)
	defer conn.Close()

	frame := readFrame(t, conn)
	require.Equal(t, delivery.FrameInitial, frame.Type)
	require.Equal(t, map[string]delivery.Status{
		"wamid.1": delivery.StatusSent,
		"wamid.2": delivery.StatusDelivered,
	}, frame.Statuses)
}

func TestStreamController_BroadcastsRecordedStatuses(t *testing.T) {
	srv, service, _ := newStreamServer(t)

	conn := dialStream(t, srv)
	defer conn.Close()
	initial := readFrame(t, conn)
	require.Equal(t, delivery.FrameInitial, initial.Type)
	require.Empty(t, initial.Statuses)

	service.RecordStatus("wamid.1", delivery.StatusDelivered)

	update := readFrame(t, conn)
	require.Equal(t, delivery.FrameUpdate, update.Type)
	require.Equal(t, "wamid.1", update.MessageID)
	require.Equal(t, delivery.StatusDelivered, update.Status)
}

func TestStreamController_LateJoinerSeesFullStore(t *testing.T) {
	srv, service, _ := newStreamServer(t)

	for _, w := range []struct {
		id     string
		status delivery.Status
	}{
		{"wamid.1", delivery.StatusSent},
		{"wamid.2", delivery.StatusSent},
		{"wamid.1", delivery.StatusRead},
		{"wamid.3", delivery.StatusFailed},
	} {
		service.RecordStatus(w.id, w.status)
	}

	conn := dialStream(t, srv)
	defer conn.Close()

	frame := readFrame(t, conn)
	require.Equal(t, delivery.FrameInitial, frame.Type)
	require.Len(t, frame.Statuses, 3)
	require.Equal(t, delivery.StatusRead, frame.Statuses["wamid.1"])
}
