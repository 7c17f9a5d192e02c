package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"fibra-quiz-service/internal/app"
	"fibra-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Identity resolves the learner behind a request. An empty id with a nil error
// means the request is anonymous.
type Identity interface {
	UserID(r *http.Request) (string, error)
}

type WSHandler struct {
	service  *app.QuizService
	identity Identity
	log      *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, identity Identity, log *zap.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		identity: identity,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	OptionID int64 `json:"optionId"`
}

type feedbackPayload struct {
	QuestionID int64 `json:"questionId"`
	Correct    bool  `json:"correct"`
}

type finishedPayload struct {
	Result      domain.Result `json:"result"`
	ResultsPath string        `json:"resultsPath"`
}

const (
	saveFailedUnauthorized = "unauthorized"
	saveFailedPersistence  = "persistence"
)

type saveFailedPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// attemptParams reads subject, id and mode from the query. Exams default to exam
// feedback, lessons to practice feedback.
func attemptParams(r *http.Request) (domain.Subject, app.FeedbackMode, error) {
	q := r.URL.Query()
	kind, ok := domain.ParseSubjectKind(q.Get("subject"))
	if !ok {
		return domain.Subject{}, "", fmt.Errorf("subject must be exam or lesson")
	}
	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	if err != nil || id <= 0 {
		return domain.Subject{}, "", fmt.Errorf("id must be a positive integer")
	}
	mode := app.ModePractice
	if kind == domain.SubjectExam {
		mode = app.ModeExam
	}
	if raw := q.Get("mode"); raw != "" {
		if mode, ok = app.ParseFeedbackMode(raw); !ok {
			return domain.Subject{}, "", fmt.Errorf("mode must be exam or practice")
		}
	}
	return domain.Subject{Kind: kind, ID: id}, mode, nil
}

// ResultsPath is where the client navigates after a finished attempt.
func ResultsPath(r domain.Result) string {
	return fmt.Sprintf("/%s/%d/results?score=%d&total=%d", r.Subject.Kind, r.Subject.ID, r.Score, r.Total)
}

// ServeWS opens an attempt for the requested subject and drives it from the
// socket's messages. Closing the socket abandons the attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	subject, mode, err := attemptParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := h.identity.UserID(r)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	view, err := h.service.Start(r.Context(), subject, mode)
	if err != nil {
		if errors.Is(err, domain.ErrSubjectNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.log.Error("start attempt failed", zap.Stringer("subject", subject), zap.Error(err))
		http.Error(w, "failed to load questions", http.StatusInternalServerError)
		return
	}
	attemptID := view.AttemptID
	defer h.service.Abandon(context.Background(), attemptID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.String("attempt", attemptID), zap.Error(err))
				return
			}
		}
	}()

	// Stops once the writer has gone away so the read loop never blocks on send.
	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}
	finalize := func() {
		result, err := h.service.Finalize(ctx, attemptID, userID)
		if err != nil {
			kind := saveFailedPersistence
			if errors.Is(err, domain.ErrUnauthorized) {
				kind = saveFailedUnauthorized
			}
			emit("saveFailed", saveFailedPayload{Kind: kind, Message: err.Error()})
			return
		}
		emit("finished", finishedPayload{Result: result, ResultsPath: ResultsPath(result)})
	}

	// The reader cancels ctx when the socket goes away so an in-flight save is dropped.
	inbox := make(chan inboundMessage)
	go func() {
		defer close(inbox)
		defer cancel()
		for {
			var inbound inboundMessage
			if err := conn.ReadJSON(&inbound); err != nil {
				return
			}
			select {
			case inbox <- inbound:
			case <-ctx.Done():
				return
			}
		}
	}()

	emit("state", view)
	if view.Finished {
		finalize()
	}

	for inbound := range inbox {
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit("error", errorPayload{Message: "invalid select payload"})
				continue
			}
			view, err := h.service.Select(ctx, attemptID, payload.OptionID)
			if err != nil {
				emit("error", errorPayload{Message: err.Error()})
				continue
			}
			emit("state", view)
		case "confirm":
			view, t, err := h.service.Confirm(ctx, attemptID)
			if err != nil {
				emit("error", errorPayload{Message: err.Error()})
				continue
			}
			if t.Evaluated && mode == app.ModePractice {
				emit("feedback", feedbackPayload{QuestionID: t.QuestionID, Correct: t.Correct})
			}
			emit("state", view)
			if t.Kind == app.TransitionFinished {
				finalize()
			}
		case "retrySave":
			view, err := h.service.View(ctx, attemptID)
			if err != nil {
				emit("error", errorPayload{Message: err.Error()})
				continue
			}
			if !view.Finished {
				emit("error", errorPayload{Message: domain.ErrAttemptInProgress.Error()})
				continue
			}
			finalize()
		default:
			emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	close(send)
	<-writerDone
}
