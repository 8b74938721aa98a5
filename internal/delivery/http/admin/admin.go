package http_admin

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	http_common "github.com/vibevortex/core/internal/delivery/http/common"
	http_auth_middleware "github.com/vibevortex/core/internal/delivery/http/middleware/auth"
	"github.com/vibevortex/core/internal/model"
	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

type Controller struct {
	users  *usecase_user.Usecase
	mw     *http_auth_middleware.Middleware
	logger *slog.Logger
}

func New(
	users *usecase_user.Usecase,
	mw *http_auth_middleware.Middleware,
) *Controller {
	return &Controller{
		users:  users,
		mw:     mw,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", c.mw.AuthRequired(), c.mw.AdminRequired())
	{
		admin.GET("/users", c.listUsers)
		admin.POST("/users/:id/admin", c.setAdmin)
		admin.POST("/users/:id/password", c.resetPassword)
		admin.DELETE("/users/:id", c.deleteUser)
		admin.GET("/settings/lobby-lines", c.lobbyLines)
		admin.PUT("/settings/lobby-lines", c.setLobbyLines)
	}
}

type ListUsersResponseDTO struct {
	http_common.Response
	Users []model.UserInfo `json:"users"`
	Total int              `json:"total"`
	Stats model.UserStats  `json:"stats"`
}

func (c *Controller) listUsers(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))

	users, total, stats, err := c.users.ListUsers(ctx, ctx.Query("search"), limit, offset)
	if err != nil {
		c.logger.Error("failed to list users", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, ListUsersResponseDTO{
		Response: http_common.OK(),
		Users:    users,
		Total:    total,
		Stats:    stats,
	})
}

func targetID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid user id"))
		return 0, false
	}
	return id, true
}

type SetAdminRequestDTO struct {
	Admin *bool `json:"admin" binding:"required"`
}

func (c *Controller) setAdmin(ctx *gin.Context) {
	id, ok := targetID(ctx)
	if !ok {
		return
	}

	var req SetAdminRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	actor := http_auth_middleware.Session(ctx)
	if err := c.users.SetAdmin(ctx, actor.UserID, id, *req.Admin); err != nil {
		switch {
		case errors.Is(err, usecase_user.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.Fail("user not found"))
		case errors.Is(err, usecase_user.ErrSelfDemotion):
			ctx.JSON(http.StatusForbidden, http_common.Fail("cannot remove own admin access"))
		case errors.Is(err, usecase_user.ErrLastAdmin):
			ctx.JSON(http.StatusConflict, http_common.Fail("at least one admin account is required"))
		default:
			c.logger.Error("failed to set admin flag",
				slog.Int64("target_id", id), slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

type ResetPasswordRequestDTO struct {
	Password string `json:"password" binding:"required"`
}

func (c *Controller) resetPassword(ctx *gin.Context) {
	id, ok := targetID(ctx)
	if !ok {
		return
	}

	var req ResetPasswordRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	if err := c.users.ResetPassword(ctx, id, req.Password); err != nil {
		switch {
		case errors.Is(err, usecase_user.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.Fail("user not found"))
		case errors.Is(err, usecase_user.ErrWeakPassword):
			ctx.JSON(http.StatusBadRequest, http_common.Fail("password must be at least 8 characters"))
		default:
			c.logger.Error("failed to reset password",
				slog.Int64("target_id", id), slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

func (c *Controller) deleteUser(ctx *gin.Context) {
	id, ok := targetID(ctx)
	if !ok {
		return
	}

	actor := http_auth_middleware.Session(ctx)
	if err := c.users.DeleteUser(ctx, actor.UserID, id); err != nil {
		switch {
		case errors.Is(err, usecase_user.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.Fail("user not found"))
		case errors.Is(err, usecase_user.ErrSelfDeletion):
			ctx.JSON(http.StatusForbidden, http_common.Fail("cannot delete own account"))
		case errors.Is(err, usecase_user.ErrLastAdmin):
			ctx.JSON(http.StatusConflict, http_common.Fail("at least one admin account is required"))
		default:
			c.logger.Error("failed to delete user",
				slog.Int64("target_id", id), slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

type LobbyLinesResponseDTO struct {
	http_common.Response
	Lines []string `json:"lines"`
}

func (c *Controller) lobbyLines(ctx *gin.Context) {
	lines, err := c.users.LobbyLines(ctx)
	if err != nil {
		c.logger.Error("failed to load lobby lines", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, LobbyLinesResponseDTO{
		Response: http_common.OK(),
		Lines:    lines,
	})
}

type SetLobbyLinesRequestDTO struct {
	Lines []string `json:"lines" binding:"required"`
}

func (c *Controller) setLobbyLines(ctx *gin.Context) {
	var req SetLobbyLinesRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	if err := c.users.SetLobbyLines(ctx, req.Lines); err != nil {
		if errors.Is(err, usecase_user.ErrTooManyLobbyLines) {
			ctx.JSON(http.StatusBadRequest, http_common.Fail("too many lobby lines"))
			return
		}
		c.logger.Error("failed to store lobby lines", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}
