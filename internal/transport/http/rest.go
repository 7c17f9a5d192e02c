package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"fibra-quiz-service/internal/app"
	"fibra-quiz-service/internal/domain"
	"go.uber.org/zap"
)

// Catalog lists the exams offered by the simulator and the courses a learner
// browses to pick a lesson.
type Catalog interface {
	ListExams(ctx context.Context) ([]domain.Exam, error)
	ListCourses(ctx context.Context) ([]domain.Course, error)
	ListUnits(ctx context.Context, courseID int64) ([]domain.Unit, error)
}

// RESTHandler serves the read-only endpoints around attempts.
type RESTHandler struct {
	service  *app.QuizService
	catalog  Catalog
	identity Identity
	log      *zap.Logger
}

func NewRESTHandler(service *app.QuizService, catalog Catalog, identity Identity, log *zap.Logger) *RESTHandler {
	return &RESTHandler{service: service, catalog: catalog, identity: identity, log: log}
}

// Register mounts the routes on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /exams", h.listExams)
	mux.HandleFunc("GET /courses", h.listCourses)
	mux.HandleFunc("GET /courses/{id}/units", h.listUnits)
	mux.HandleFunc("GET /results/{kind}/{id}/latest", h.latestResult)
}

func (h *RESTHandler) listExams(w http.ResponseWriter, r *http.Request) {
	exams, err := h.catalog.ListExams(r.Context())
	if err != nil {
		h.log.Error("list exams failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list exams")
		return
	}
	writeJSON(w, http.StatusOK, exams)
}

func (h *RESTHandler) listCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.catalog.ListCourses(r.Context())
	if err != nil {
		h.log.Error("list courses failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list courses")
		return
	}
	writeJSON(w, http.StatusOK, courses)
}

func (h *RESTHandler) listUnits(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	units, err := h.catalog.ListUnits(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, units)
	case errors.Is(err, domain.ErrCourseNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.Error("list units failed", zap.Int64("course", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list units")
	}
}

func (h *RESTHandler) latestResult(w http.ResponseWriter, r *http.Request) {
	kind, ok := domain.ParseSubjectKind(r.PathValue("kind"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown subject kind")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return
	}
	userID, err := h.identity.UserID(r)
	if err != nil || userID == "" {
		writeError(w, http.StatusUnauthorized, domain.ErrUnauthorized.Error())
		return
	}

	review, err := h.service.LatestReview(r.Context(), domain.Subject{Kind: kind, ID: id}, userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, review)
	case errors.Is(err, domain.ErrResultNotFound), errors.Is(err, domain.ErrSubjectNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	default:
		h.log.Error("load latest result failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load result")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorPayload{Message: message})
}
