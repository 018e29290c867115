package dispatch

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/finenotify/finenotify/modules/notifications/domain/delivery"
)

// FrameHandler consumes decoded frames off the realtime channel.
// Reconciler is the usual implementation.
type FrameHandler interface {
	Apply(frame delivery.Frame)
}

// Observer is the client end of the realtime channel: it dials the server,
// takes the snapshot-on-join and feeds every frame into the handler.
type Observer struct {
	conn    *websocket.Conn
	handler FrameHandler
	logger  *logrus.Logger
}

// Connect dials the /ws endpoint derived from the server's HTTP base URL.
func Connect(ctx context.Context, serverURL string, handler FrameHandler, logger *logrus.Logger) (*Observer, error) {
	wsURL, err := streamURL(serverURL)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, errors.Wrapf(err, "dispatch: dial %s", wsURL)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Observer{conn: conn, handler: handler, logger: logger}, nil
}

// Listen consumes frames until the connection closes or ctx is cancelled.
func (o *Observer) Listen(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = o.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := o.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return errors.Wrap(err, "dispatch: read frame")
		}
		var frame delivery.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			o.logger.WithError(err).Debug("undecodable frame ignored")
			continue
		}
		o.handler.Apply(frame)
	}
}

func (o *Observer) Close() error {
	return o.conn.Close()
}

func streamURL(serverURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", errors.Wrap(err, "dispatch: parse server url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Errorf("dispatch: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
