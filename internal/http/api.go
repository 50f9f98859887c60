package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"notes-api/internal/auth"
	"notes-api/internal/domain"
	"notes-api/internal/service"
)

// HealthCheck reports whether the backing store is reachable.
type HealthCheck func(ctx context.Context) error

// Handler wires HTTP routes to domain services.
type Handler struct {
	notes  service.NoteService
	users  service.UserService
	tokens *auth.Tokens
	logger *logrus.Logger
	health HealthCheck
	gzip   bool
}

func NewHandler(notes service.NoteService, users service.UserService, tokens *auth.Tokens, logger *logrus.Logger, health HealthCheck, gzipEnabled bool) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		notes:  notes,
		users:  users,
		tokens: tokens,
		logger: logger,
		health: health,
		gzip:   gzipEnabled,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger), corsMiddleware())
	if h.gzip {
		router.Use(gzip.Gzip(gzip.DefaultCompression))
	}

	// update and delete only demand a token when ownership is enforced
	mutateAuth := h.optionalAuth()
	if h.notes.EnforcesOwnership() {
		mutateAuth = h.requireAuth()
	}

	api := router.Group("/api")
	{
		api.GET("/notes", h.listNotes)
		api.GET("/notes/:id", h.getNote)
		api.POST("/notes", h.requireAuth(), h.createNote)
		api.PUT("/notes/:id", mutateAuth, h.updateNote)
		api.DELETE("/notes/:id", mutateAuth, h.deleteNote)

		api.GET("/users", h.listUsers)
		api.GET("/users/:id", h.getUser)
		api.POST("/users", h.createUser)

		api.POST("/login", h.login)

		api.GET("/health", h.healthCheck)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown endpoint"})
	})
}

type noteRequest struct {
	Content   string `json:"content"`
	Important bool   `json:"important"`
}

type createUserRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) listNotes(c *gin.Context) {
	var filter domain.NoteFilter
	if raw := strings.TrimSpace(c.Query("important")); raw != "" {
		important, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(c, domain.NewValidationError("important", "important must be a boolean"))
			return
		}
		filter.Important = &important
	}

	notes, err := h.notes.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]NoteResponse, len(notes))
	for i := range notes {
		resp[i] = noteToResponse(notes[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getNote(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(*note))
}

func (h *Handler) createNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewValidationError("body", err.Error()))
		return
	}

	// ownership always comes from the token, never from the body
	identity := identityFrom(c)
	note, err := h.notes.Create(c.Request.Context(), req.Content, req.Important, identity.UserID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, noteToResponse(*note))
}

func (h *Handler) updateNote(c *gin.Context) {
	var req noteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewValidationError("body", err.Error()))
		return
	}

	note, err := h.notes.Update(c.Request.Context(), c.Param("id"), req.Content, req.Important, requesterID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(*note))
}

func (h *Handler) deleteNote(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), c.Param("id"), requesterID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(users[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getUser(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user))
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewValidationError("body", err.Error()))
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Name, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.logger.WithField("username", user.Username).Info("user registered")
	c.JSON(http.StatusCreated, userToResponse(*user))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, domain.NewValidationError("body", "username and password are required"))
		return
	}

	res, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    res.Token,
		Username: res.Username,
		Name:     res.Name,
	})
}

func (h *Handler) healthCheck(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.logger.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
