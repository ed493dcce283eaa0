package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// SessionHandler exposes quiz sessions over REST.
type SessionHandler struct {
	service *app.QuizService
	history app.HistoryRepository
	log     zerolog.Logger
}

func NewSessionHandler(service *app.QuizService, history app.HistoryRepository, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		history: history,
		log:     log.With().Str("component", "session_handler").Logger(),
	}
}

// Start godoc
// POST /api/sessions
func (h *SessionHandler) Start(c *gin.Context) {
	var req startRequest
	if fields := bind(c, &req); fields != nil {
		fail(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}

	session, err := h.service.StartSession(c.Request.Context(), req.Email)
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusCreated, newSessionView(session.State()))
}

// Get godoc
// GET /api/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, newSessionView(session.State()))
}

// Answer godoc
// POST /api/sessions/:id/answer
func (h *SessionHandler) Answer(c *gin.Context) {
	var req answerRequest
	if fields := bind(c, &req); fields != nil {
		fail(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}
	h.apply(c, func(s *app.Session) error { return s.SelectAnswer(*req.Option) })
}

// Next godoc
// POST /api/sessions/:id/next
func (h *SessionHandler) Next(c *gin.Context) {
	h.apply(c, (*app.Session).Next)
}

// Previous godoc
// POST /api/sessions/:id/previous
func (h *SessionHandler) Previous(c *gin.Context) {
	h.apply(c, (*app.Session).Previous)
}

// Jump godoc
// POST /api/sessions/:id/jump
func (h *SessionHandler) Jump(c *gin.Context) {
	var req jumpRequest
	if fields := bind(c, &req); fields != nil {
		fail(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}
	h.apply(c, func(s *app.Session) error { return s.JumpTo(*req.Index) })
}

// Submit godoc
// POST /api/sessions/:id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	sub, _ := session.Submit()
	if sub.SessionID == "" {
		failErr(c, domain.ErrSessionNotActive)
		return
	}
	success(c, http.StatusOK, submitResult{
		Session: newSessionView(session.State()),
		Report:  newReportView(app.Score(sub)),
	})
}

// Abandon godoc
// DELETE /api/sessions/:id
func (h *SessionHandler) Abandon(c *gin.Context) {
	if err := h.service.Abandon(c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Report godoc
// GET /api/reports/:id
func (h *SessionHandler) Report(c *gin.Context) {
	report, err := h.service.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, newReportView(report))
}

// History godoc
// GET /api/users/:email/history?limit=
func (h *SessionHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	entries, err := h.history.History(c.Request.Context(), c.Param("email"), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("history lookup failed")
		failErr(c, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	success(c, http.StatusOK, entries)
}

// apply runs op against the session named in the path and returns the new state.
func (h *SessionHandler) apply(c *gin.Context, op func(*app.Session) error) {
	session, err := h.service.Session(c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	if err := op(session); err != nil {
		failErr(c, err)
		return
	}
	success(c, http.StatusOK, newSessionView(session.State()))
}
