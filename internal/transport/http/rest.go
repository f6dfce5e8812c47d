package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"guidely-quiz-service/internal/app"
	"guidely-quiz-service/internal/catalog"
	"guidely-quiz-service/internal/domain"
	"guidely-quiz-service/internal/scoring"
)

const maxBodyBytes = 64 << 10

// API serves the read-only catalogue and stateless scoring over JSON.
type API struct {
	service *app.QuizService
	logger  *slog.Logger
}

func NewAPI(service *app.QuizService, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{service: service, logger: logger}
}

// Routes registers the /api endpoints on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/questions", a.questions)
	mux.HandleFunc("GET /api/options", a.options)
	mux.HandleFunc("GET /api/streams", a.streams)
	mux.HandleFunc("GET /api/results/{userID}", a.result)
	mux.HandleFunc("POST /api/score", a.score)
}

type streamPayload struct {
	Stream  domain.Category  `json:"stream"`
	Label   string           `json:"label"`
	Careers domain.CareerMap `json:"careers"`
}

type scoreRequest struct {
	Answers map[string]int `json:"answers"`
}

type scoreResponse struct {
	Result  domain.Result       `json:"result"`
	Compare []domain.Comparison `json:"compare"`
	Graph   []domain.Node       `json:"graph"`
}

func (a *API) questions(w http.ResponseWriter, r *http.Request) {
	questions, err := a.service.Questions(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) options(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Options())
}

func (a *API) streams(w http.ResponseWriter, _ *http.Request) {
	out := make([]streamPayload, 0, len(domain.Categories))
	for _, c := range a.service.Engine().Categories() {
		cm, _ := catalog.CareerMapFor(c)
		out = append(out, streamPayload{Stream: c, Label: c.Label(), Careers: cm})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) result(w http.ResponseWriter, r *http.Request) {
	report, err := a.service.Result(r.Context(), r.PathValue("userID"))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *API) score(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return
	}
	answers := make(domain.AnswerSet, len(req.Answers))
	for id, v := range req.Answers {
		if !catalog.ValidOption(v) {
			a.writeError(w, domain.ErrInvalidOption)
			return
		}
		answers[id] = v
	}

	result, err := a.service.Score(r.Context(), answers)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{
		Result:  result,
		Compare: app.Compare(result, 2),
		Graph:   a.service.Engine().Layout(result, scoring.DefaultRadius),
	})
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed", "error", err)
		writeJSON(w, status, errorPayload{Message: "internal error"})
		return
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrQuestionsNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOption),
		errors.Is(err, domain.ErrUnknownCategory),
		errors.Is(err, domain.ErrInvalidQuestion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAlreadySubmitted),
		errors.Is(err, domain.ErrNotEnoughAnswers):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
