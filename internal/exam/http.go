package exam

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examadapt/adaptive-engine/internal/auth"
	"github.com/examadapt/adaptive-engine/internal/question"
	httperrors "github.com/examadapt/adaptive-engine/pkg/http/errors"
)

// HTTPHandlers exposes the engine's operations as plain-JSON endpoints.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "exam_http").Logger(),
	}
}

type startResponse struct {
	SessionID     string  `json:"session_id"`
	Ability       float64 `json:"ability"`
	StandardError float64 `json:"standard_error"`
	Status        string  `json:"status"`
}

type nextRequest struct {
	Topic string `json:"topic,omitempty"`
}

// itemPayload is the client view of an item: the correct option never leaves
// the server.
type itemPayload struct {
	ID      string   `json:"id"`
	Topic   string   `json:"topic"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type nextResponse struct {
	Complete bool         `json:"complete"`
	Reason   string       `json:"reason,omitempty"`
	Question *itemPayload `json:"question,omitempty"`
}

type submitRequest struct {
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
	TimeTakenSecs  int    `json:"time_taken_secs"`
}

type historyEntry struct {
	SessionID     string    `json:"session_id"`
	Score         int       `json:"score"`
	Total         int       `json:"total"`
	Percentage    float64   `json:"percentage"`
	TimeTakenSecs int       `json:"time_taken_secs"`
	FinalAbility  float64   `json:"final_ability"`
	StandardError float64   `json:"standard_error"`
	CompletedAt   time.Time `json:"completed_at"`
}

type historyResponse struct {
	Results []historyEntry `json:"results"`
}

// StartSession handles POST /v1/exam/sessions
func (h *HTTPHandlers) StartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	studentID := auth.StudentFromContext(r.Context())
	if studentID == uuid.Nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	sess, err := h.service.Start(r.Context(), studentID)
	if err != nil {
		h.respondServiceError(w, err, studentID)
		return
	}

	h.respondJSON(w, http.StatusCreated, startResponse{
		SessionID:     sess.ID.String(),
		Ability:       sess.Ability,
		StandardError: sess.SE,
		Status:        sess.Status,
	})
}

// NextQuestion handles POST /v1/exam/sessions/{id}/next
func (h *HTTPHandlers) NextQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	studentID, sessionID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req nextRequest
	if r.Body != nil {
		// Empty body is fine; topic filtering is optional.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	result, err := h.service.Next(r.Context(), sessionID, studentID, req.Topic)
	if err != nil {
		h.respondServiceError(w, err, studentID)
		return
	}

	resp := nextResponse{Complete: result.Complete, Reason: result.Reason}
	if !result.Complete {
		resp.Question = toItemPayload(result.Item)
	}
	h.respondJSON(w, http.StatusOK, resp)
}

// SubmitResponse handles POST /v1/exam/sessions/{id}/responses
func (h *HTTPHandlers) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	studentID, sessionID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.QuestionID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "question_id is required", "question_id")
		return
	}
	if req.SelectedOption == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "selected_option is required", "selected_option")
		return
	}

	analysis, err := h.service.Submit(r.Context(), sessionID, studentID, req.QuestionID, req.SelectedOption, req.TimeTakenSecs)
	if err != nil {
		h.respondServiceError(w, err, studentID)
		return
	}

	h.respondJSON(w, http.StatusOK, analysis)
}

// SessionReport handles GET /v1/exam/sessions/{id}/report
func (h *HTTPHandlers) SessionReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	studentID, sessionID, ok := h.identify(w, r)
	if !ok {
		return
	}

	report, err := h.service.Report(r.Context(), sessionID, studentID)
	if err != nil {
		h.respondServiceError(w, err, studentID)
		return
	}

	h.respondJSON(w, http.StatusOK, report)
}

// History handles GET /v1/exam/results
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	studentID := auth.StudentFromContext(r.Context())
	if studentID == uuid.Nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	results, err := h.service.History(r.Context(), studentID, limit)
	if err != nil {
		h.respondServiceError(w, err, studentID)
		return
	}

	payload := make([]historyEntry, 0, len(results))
	for _, res := range results {
		payload = append(payload, historyEntry{
			SessionID:     res.SessionID.String(),
			Score:         res.Score,
			Total:         res.Total,
			Percentage:    res.Percentage,
			TimeTakenSecs: res.TimeTakenSecs,
			FinalAbility:  res.FinalAbility,
			StandardError: res.StandardError,
			CompletedAt:   res.CompletedAt,
		})
	}
	h.respondJSON(w, http.StatusOK, historyResponse{Results: payload})
}

// identify extracts the authenticated student and the {id} path value.
func (h *HTTPHandlers) identify(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	studentID := auth.StudentFromContext(r.Context())
	if studentID == uuid.Nil {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return uuid.Nil, uuid.Nil, false
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidSessionID, "Invalid session id")
		return uuid.Nil, uuid.Nil, false
	}
	return studentID, sessionID, true
}

func (h *HTTPHandlers) respondServiceError(w http.ResponseWriter, err error, studentID uuid.UUID) {
	switch {
	case errors.Is(err, ErrInvalidStudent):
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidStudent, "Unknown student")
	case errors.Is(err, ErrSessionNotFound):
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
	case errors.Is(err, ErrSessionClosed):
		httperrors.RespondConflict(w, httperrors.ErrCodeSessionClosed, "Session is complete and accepts no further responses")
	case errors.Is(err, ErrUnknownQuestion):
		httperrors.RespondConflict(w, httperrors.ErrCodeUnknownQuestion, "Submission does not match the pending question")
	default:
		h.logger.Error().Err(err).Str("student_id", studentID.String()).Msg("exam operation failed")
		httperrors.RespondInternalError(w, "Internal error")
	}
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error().Err(err).Msg("encode response failed")
	}
}

func toItemPayload(item question.Item) *itemPayload {
	return &itemPayload{
		ID:      item.ID,
		Topic:   item.Topic,
		Prompt:  item.Prompt,
		Options: item.Options,
	}
}
