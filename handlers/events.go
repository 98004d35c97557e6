package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/biosecret/go-todo/events"
	"github.com/biosecret/go-todo/middleware"
	"github.com/biosecret/go-todo/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"
)

const keepAliveMsg = ":keepalive\n\n"

// EventHandler streams task events to their owners as Server-Sent Events.
type EventHandler struct {
	hub       *events.Hub
	keepAlive time.Duration

	done      chan struct{}
	closeOnce sync.Once
}

func NewEventHandler(hub *events.Hub, keepAlive time.Duration) *EventHandler {
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	return &EventHandler{
		hub:       hub,
		keepAlive: keepAlive,
		done:      make(chan struct{}),
	}
}

// Close ends every open stream so the server can shut down.
func (h *EventHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func formatSSEMessage(eventType string, data any) (string, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		return "", err
	}

	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("event: %s\n", eventType))
	sb.WriteString(fmt.Sprintf("retry: %d\n", 15000))
	sb.WriteString(fmt.Sprintf("data: %s\n\n", strings.TrimRight(buf.String(), "\n")))
	return sb.String(), nil
}

// Stream godoc
// @Summary Stream the caller's task changes
// @Tags tasks
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200
// @Failure 401 {object} errorResponse
// @Router /tasks/events [get]
func (h *EventHandler) Stream(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return services.ErrMissingIdentity
	}

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	sub := h.hub.Subscribe(userID)
	log.Infow("Event stream opened", "user_id", userID)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		keepAliveTicker := time.NewTicker(h.keepAlive)
		defer func() {
			keepAliveTicker.Stop()
			h.hub.Unsubscribe(sub)
			log.Infow("Event stream closed", "user_id", userID)
		}()

		if err := write(w, keepAliveMsg); err != nil {
			return
		}
		for {
			select {
			case ev := <-sub.C:
				msg, err := formatSSEMessage("task-"+ev.Type, ev)
				if err != nil {
					log.Errorw("error formatting sse message", "error", err)
					continue
				}
				if err := write(w, msg); err != nil {
					return
				}
			case <-keepAliveTicker.C:
				if err := write(w, keepAliveMsg); err != nil {
					return
				}
			case <-h.done:
				return
			}
		}
	}))

	return nil
}

func write(w *bufio.Writer, msg string) error {
	if _, err := w.WriteString(msg); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		log.Debugw("error while flushing event stream", "error", err)
		return err
	}
	return nil
}
