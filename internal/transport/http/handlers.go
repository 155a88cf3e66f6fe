// Package http exposes the REST and websocket surface of the service.
package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bankprep-service/internal/app"
	"bankprep-service/internal/auth"
	"bankprep-service/internal/domain"
)

// Handler holds the use-case services behind the REST routes.
type Handler struct {
	accounts  *app.AccountService
	catalog   *app.CatalogService
	attempts  *app.AttemptService
	analytics *app.AnalyticsService
	tokens    *auth.Service
}

func NewHandler(accounts *app.AccountService, catalog *app.CatalogService, attempts *app.AttemptService, analytics *app.AnalyticsService, tokens *auth.Service) *Handler {
	return &Handler{
		accounts:  accounts,
		catalog:   catalog,
		attempts:  attempts,
		analytics: analytics,
		tokens:    tokens,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrResultNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrSubjectNotFound),
		errors.Is(err, domain.ErrChapterNotFound),
		errors.Is(err, domain.ErrBoardNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSubmission),
		errors.Is(err, domain.ErrInvalidQuiz):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// --- auth ---

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}
	user, err := h.accounts.Register(r.Context(), req.Name, req.Email, req.Password, domain.RoleStudent)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSession(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidCredentials)
		return
	}
	user, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	h.writeSession(w, http.StatusOK, user)
}

func (h *Handler) writeSession(w http.ResponseWriter, status int, user domain.User) {
	token, err := h.tokens.Issue(user.ID, user.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, sessionResponse{Token: token, User: user})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.accounts.GetProfile(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// --- catalog, student-facing ---

func (h *Handler) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.catalog.ListSubjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subjects)
}

func (h *Handler) listChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.catalog.ListChapters(r.Context(), chi.URLParam(r, "subjectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chapters)
}

func (h *Handler) listQuizzes(w http.ResponseWriter, r *http.Request) {
	includeInactive := auth.IsAdmin(r.Context()) && r.URL.Query().Get("all") == "true"
	quizzes, err := h.catalog.ListQuizzes(r.Context(), includeInactive)
	if err != nil {
		writeError(w, err)
		return
	}
	// The listing never carries answer keys, regardless of role.
	views := make([]domain.Quiz, len(quizzes))
	for i, q := range quizzes {
		views[i] = q.StudentView()
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.GetQuizForStudent(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

// --- attempts ---

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var sub app.Submission
	if err := decode(r, &sub); err != nil {
		writeError(w, domain.ErrInvalidSubmission)
		return
	}
	result, err := h.attempts.Submit(r.Context(), auth.SubjectFromContext(r.Context()), chi.URLParam(r, "quizID"), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) listMyResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.attempts.ListResults(r.Context(), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) getResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.attempts.GetResult(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if result.UserID != auth.SubjectFromContext(r.Context()) && !auth.IsAdmin(r.Context()) {
		writeError(w, domain.ErrResultNotFound)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := h.attempts.Leaderboard(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// --- admin ---

func (h *Handler) createSubject(w http.ResponseWriter, r *http.Request) {
	var req domain.Subject
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	subject, err := h.catalog.CreateSubject(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, subject)
}

func (h *Handler) updateSubject(w http.ResponseWriter, r *http.Request) {
	var req domain.Subject
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	req.ID = chi.URLParam(r, "subjectID")
	if err := h.catalog.UpdateSubject(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) deleteSubject(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteSubject(r.Context(), chi.URLParam(r, "subjectID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createChapter(w http.ResponseWriter, r *http.Request) {
	var req domain.Chapter
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	chapter, err := h.catalog.CreateChapter(r.Context(), chi.URLParam(r, "subjectID"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, chapter)
}

func (h *Handler) deleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteChapter(r.Context(), chi.URLParam(r, "chapterID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.Quiz
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	quiz, err := h.catalog.CreateQuiz(r.Context(), req, auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *Handler) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.Quiz
	if err := decode(r, &req); err != nil {
		writeError(w, domain.ErrInvalidQuiz)
		return
	}
	req.ID = chi.URLParam(r, "quizID")
	if err := h.catalog.UpdateQuiz(r.Context(), req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getQuizAdmin(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.catalog.GetQuizAdmin(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (h *Handler) deleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.attempts.DeleteResult(r.Context(), chi.URLParam(r, "resultID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) analyticsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analytics.Overview(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
