package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"userhive/backend/internal/apperr"
	"userhive/backend/internal/authz"
	"userhive/backend/internal/commands"
	"userhive/backend/internal/models"
)

// Routes mounts the API surface on a gin engine.
func (h *Handler) Routes(r *gin.Engine) {
	api := r.Group("/api/v1/user")

	api.POST("/login", h.Login)

	authed := api.Group("")
	authed.Use(h.AuthMiddleware())
	{
		authed.POST("", h.CreateUser)
		authed.GET("/list", h.ListUsers)
		authed.GET("/quantities", h.UserQuantities)
		authed.GET("/:id", h.GetUser)
		authed.PATCH("", h.UpdateSelf)
		authed.PATCH("/restore/:id", h.RestoreUser)
		authed.PATCH("/:id", h.UpdateUser)
		authed.DELETE("", h.DeleteSelf)
		authed.DELETE("/:id", h.DeleteUser)

		authed.GET("/socket/connection", h.ServePresenceSocket)
		authed.GET("/socket/chat", h.ServeChatSocket)
	}
}

func respondError(c *gin.Context, err error) {
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
}

// CreateUser creates a subordinate user. Owner only.
func (h *Handler) CreateUser(c *gin.Context) {
	actor := principal(c)
	if !authz.OwnerOnly(actor, nil) {
		respondError(c, apperr.New(apperr.Forbidden, "Only an owner may create users."))
		return
	}

	var in commands.CreateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "Invalid request body.", err))
		return
	}

	user, err := h.Commands.CreateUser(actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user.Redacted())
}

// GetUser reads one user.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Users.FindByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Redacted())
}

// ListUsers returns one page of users.
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	take, _ := strconv.Atoi(c.DefaultQuery("take", "20"))

	users, total, err := h.Users.List(page, take)
	if err != nil {
		respondError(c, err)
		return
	}

	redacted := make([]models.PublicUser, 0, len(users))
	for i := range users {
		redacted = append(redacted, users[i].Redacted())
	}
	c.JSON(http.StatusOK, gin.H{"users": redacted, "total": total})
}

// UserQuantities returns per-role user counts. Owner only.
func (h *Handler) UserQuantities(c *gin.Context) {
	if !authz.OwnerOnly(principal(c), nil) {
		respondError(c, apperr.New(apperr.Forbidden, "Only an owner may view quantities."))
		return
	}

	quantities, err := h.Users.Quantities()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, quantities)
}

// UpdateSelf applies a user's changes to their own record.
func (h *Handler) UpdateSelf(c *gin.Context) {
	var in commands.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "Invalid request body.", err))
		return
	}

	user, err := h.Commands.UpdateUserByUser(principal(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Redacted())
}

// UpdateUser applies an owner's changes to a subordinate record.
func (h *Handler) UpdateUser(c *gin.Context) {
	actor := principal(c)
	if !authz.OwnerOnly(actor, nil) {
		respondError(c, apperr.New(apperr.Forbidden, "Only an owner may update other users."))
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var in commands.UpdateUserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, apperr.Wrap(apperr.Validation, "Invalid request body.", err))
		return
	}
	in.ID = id

	user, err := h.Commands.UpdateUserByOwner(actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Redacted())
}

// DeleteSelf tombstones the caller's own record.
func (h *Handler) DeleteSelf(c *gin.Context) {
	user, err := h.Commands.DeleteUserByUser(principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Redacted())
}

// DeleteUser tombstones a subordinate record. Owner only.
func (h *Handler) DeleteUser(c *gin.Context) {
	actor := principal(c)
	if !authz.OwnerOnly(actor, nil) {
		respondError(c, apperr.New(apperr.Forbidden, "Only an owner may delete other users."))
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Commands.DeleteUserByOwner(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Redacted())
}

// RestoreUser clears a subordinate's tombstone. Owner only.
func (h *Handler) RestoreUser(c *gin.Context) {
	actor := principal(c)
	if !authz.OwnerOnly(actor, nil) {
		respondError(c, apperr.New(apperr.Forbidden, "Only an owner may restore users."))
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Commands.RestoreUser(actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Redacted())
}

func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.New(apperr.Validation, "Invalid user id.")
	}
	return uint(id), nil
}
