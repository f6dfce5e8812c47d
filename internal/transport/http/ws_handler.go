package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"guidely-quiz-service/internal/app"
	"guidely-quiz-service/internal/catalog"
	"guidely-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	limits   Limits
	logger   *slog.Logger
}

func NewWSHandler(service *app.QuizService, limits Limits, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		limits: limits,
		logger: logger,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Value      *int   `json:"value"`
}

type joinedPayload struct {
	UserID    string                `json:"userId"`
	Questions []domain.Question     `json:"questions"`
	Options   []domain.AnswerOption `json:"options"`
	Session   domain.ScoreUpdate    `json:"session"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and drives one student's quiz
// session. Students without a userId get a fresh one in the joined message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	logger := h.logger.With("user_id", userID)

	questions, err := h.service.Questions(ctx)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	// Subscribe opens the session itself, so a concurrent Leave from another
	// tab cannot release it between open and subscribe.
	updates, cancel, err := h.service.Subscribe(ctx, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	// Registered first so it runs after cancel: the session is idle by then.
	defer h.service.Leave(ctx, userID)
	defer cancel()

	// The first update is the current state; joined carries it.
	started := <-updates

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				logger.Warn("ws write error", "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "scores", Payload: update}:
				case <-closeSignals:
					return
				case <-writerDone:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// emit gives up once the writer has stopped on a broken connection.
	emit := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	emit(outboundMessage[any]{Type: "joined", Payload: joinedPayload{
		UserID:    userID,
		Questions: questions,
		Options:   catalog.Options(),
		Session:   started,
	}})
	logger.Info("student joined", "state", started.State, "answered", started.Answered)

	limiter := h.limits.newLimiter()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if !limiter.Allow() {
			emit(errorMessage("rate limit exceeded"))
			continue
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Value == nil {
				emit(errorMessage("invalid answer payload"))
				continue
			}
			// The fresh scores arrive through the subscription.
			if _, err := h.service.Answer(ctx, userID, payload.QuestionID, *payload.Value); err != nil {
				emit(errorMessage(err.Error()))
			}
		case "submit":
			report, err := h.service.Submit(ctx, userID)
			if err != nil {
				if !errors.Is(err, domain.ErrNotEnoughAnswers) && !errors.Is(err, domain.ErrAlreadySubmitted) {
					logger.Error("submit failed", "error", err)
				}
				emit(errorMessage(err.Error()))
				continue
			}
			emit(outboundMessage[any]{Type: "submitted", Payload: report})
		case "retake":
			if _, err := h.service.Retake(ctx, userID); err != nil {
				emit(errorMessage(err.Error()))
			}
		default:
			emit(errorMessage("unsupported message type"))
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}
