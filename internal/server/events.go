package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/handspeak/internal/app"
	"github.com/ayusman/handspeak/internal/symbol"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ReportSource publishes frame reports and accepts mode toggles.
type ReportSource interface {
	Subscribe() (<-chan app.FrameReport, func())
	Toggle() symbol.Mode
}

// clientMessage is a command sent by a display client.
type clientMessage struct {
	Type string `json:"type"`
}

// EventsHandler broadcasts every frame report to WebSocket clients.
// Clients may send {"type":"toggle"} to switch modes.
type EventsHandler struct {
	source ReportSource
	log    logrus.FieldLogger
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(source ReportSource, logger logrus.FieldLogger) *EventsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventsHandler{source: source, log: logger.WithField("component", "events")}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	reports, cancel := h.source.Subscribe()
	defer cancel()

	closed := make(chan struct{})
	go h.readLoop(conn, closed)

	for {
		select {
		case <-closed:
			return
		case report, ok := <-reports:
			if !ok {
				return
			}
			msg, err := json.Marshal(report)
			if err != nil {
				h.log.WithError(err).Error("Failed to encode report")
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// readLoop handles client commands until the connection closes.
func (h *EventsHandler) readLoop(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.log.WithError(err).Debug("Ignoring malformed client message")
			continue
		}
		switch msg.Type {
		case "toggle":
			h.source.Toggle()
		default:
			h.log.WithField("type", msg.Type).Debug("Ignoring unknown client message")
		}
	}
}
