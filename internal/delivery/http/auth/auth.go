package http_auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/vibevortex/core/internal/delivery/http/common"
	service_session "github.com/vibevortex/core/internal/service/session"
	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

const (
	cookieMaxAge = 24 * 60 * 60

	// Profile pictures above this are rejected before touching the store.
	maxAvatarBytes = 5 << 20
)

type Controller struct {
	users    *usecase_user.Usecase
	sessions *service_session.Service
	logger   *slog.Logger
}

func New(
	users *usecase_user.Usecase,
	sessions *service_session.Service,
) *Controller {
	return &Controller{
		users:    users,
		sessions: sessions,
		logger:   slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/register", c.register)
		api.POST("/login", c.login)
		api.GET("/logout", c.logout)
	}
}

func (c *Controller) register(ctx *gin.Context) {
	username := ctx.PostForm("username")
	email := ctx.PostForm("email")
	password := ctx.PostForm("password")

	if username == "" || email == "" || password == "" {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("username, email and password are required"))
		return
	}

	var picture []byte
	var pictureName string
	if file, err := ctx.FormFile("profilePicture"); err == nil {
		if file.Size > maxAvatarBytes {
			ctx.JSON(http.StatusBadRequest, http_common.Fail("profile picture too large"))
			return
		}
		opened, err := file.Open()
		if err != nil {
			c.logger.Error("failed to open uploaded avatar", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
			return
		}
		picture, err = io.ReadAll(opened)
		opened.Close()
		if err != nil {
			c.logger.Error("failed to read uploaded avatar", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
			return
		}
		pictureName = file.Filename
	}

	err := c.users.Register(ctx, username, email, password, picture, pictureName)
	if err != nil {
		switch {
		case errors.Is(err, usecase_user.ErrUsernameTaken):
			ctx.JSON(http.StatusConflict, http_common.Fail("username already exists"))
		case errors.Is(err, usecase_user.ErrEmailTaken):
			ctx.JSON(http.StatusConflict, http_common.Fail("email already exists"))
		default:
			c.logger.Error("failed to register user", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusCreated, http_common.OK())
}

type LoginRequestDTO struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (c *Controller) login(ctx *gin.Context) {
	var req LoginRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	user, err := c.users.Login(ctx, req.Email, req.Password, ctx.ClientIP())
	if err != nil {
		if errors.Is(err, usecase_user.ErrWrongCredentials) {
			ctx.JSON(http.StatusUnauthorized, http_common.Fail("wrong email or password"))
			return
		}
		c.logger.Error("failed to log user in", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	token, err := c.sessions.Create(service_session.Session{
		UserID: user.ID,
		Admin:  user.Admin,
	})
	if err != nil {
		c.logger.Error("failed to create session", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.SetCookie(http_common.SessionCookie, token, cookieMaxAge, "/", "", false, true)
	ctx.JSON(http.StatusOK, http_common.OK())
}

func (c *Controller) logout(ctx *gin.Context) {
	token, err := ctx.Cookie(http_common.SessionCookie)
	if err == nil && token != "" {
		if err := c.sessions.Destroy(token); err != nil {
			c.logger.Warn("failed to destroy session", slog.String("error", err.Error()))
		}
	}

	ctx.SetCookie(http_common.SessionCookie, "", -1, "/", "", false, true)
	ctx.JSON(http.StatusOK, http_common.OK())
}
