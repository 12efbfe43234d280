package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"speaksea/controllers"
	"speaksea/models"
	"speaksea/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	maxFrameBytes = 16 << 20
	writeTimeout  = 10 * time.Second
	frameQueue    = 4
)

// ReplyFrame carries one examiner turn back to the client.
type ReplyFrame struct {
	Type string `json:"type"`
	*models.ConversationResponse
}

// ErrorFrame reports a failed round. The connection stays open.
type ErrorFrame struct {
	Type  string `json:"type"`
	Stage string `json:"stage,omitempty"`
	Error string `json:"error"`
}

// ConversationHandler runs conversation rounds over a websocket. Every text
// frame is a complete request; nothing is remembered between frames.
type ConversationHandler struct {
	orchestrator *services.Orchestrator
	upgrader     websocket.Upgrader
	logger       *slog.Logger
}

func NewConversationHandler(o *services.Orchestrator, allowedOrigins []string, logger *slog.Logger) *ConversationHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &ConversationHandler{
		orchestrator: o,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// Non-browser clients send no Origin.
				return origin == "" || allowed[origin]
			},
		},
	}
}

type frame struct {
	messageType int
	data        []byte
}

// Handle serves one connection. Frames are read on their own goroutine so a
// client that goes away cancels the round in flight; the hijacked request
// context is never cancelled by net/http.
func (h *ConversationHandler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	frames := make(chan frame, frameQueue)
	go h.readFrames(ctx, cancel, conn, frames)

	for f := range frames {
		var reply any
		if f.messageType != websocket.TextMessage {
			reply = ErrorFrame{Type: "error", Stage: string(services.StageDecode), Error: "expected a text frame"}
		} else {
			reply = h.round(ctx, f.data)
		}
		if ctx.Err() != nil {
			return
		}
		if err := h.write(conn, reply); err != nil {
			h.logger.Warn("websocket write error", "error", err)
			return
		}
	}
}

// readFrames feeds frames to Handle until the connection fails, then cancels
// ctx.
func (h *ConversationHandler) readFrames(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, frames chan<- frame) {
	defer close(frames)
	defer cancel()
	for {
		messageType, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		select {
		case frames <- frame{messageType: messageType, data: msg}:
		case <-ctx.Done():
			return
		}
	}
}

func (h *ConversationHandler) round(ctx context.Context, msg []byte) any {
	var req models.ConversationRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		return errorFrame(&services.DecodeError{Field: "frame", Err: err})
	}

	resp, err := h.orchestrator.Run(ctx, &req)
	if err != nil {
		if controllers.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("conversation round failed", "error", err)
		}
		return errorFrame(err)
	}
	return ReplyFrame{Type: "reply", ConversationResponse: resp}
}

func (h *ConversationHandler) write(conn *websocket.Conn, frame any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(frame)
}

func errorFrame(err error) ErrorFrame {
	body := controllers.NewErrorResponse(err)
	return ErrorFrame{Type: "error", Stage: body.Stage, Error: body.Error}
}
