package http_vortex

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/vibevortex/core/internal/delivery/http/common"
	http_auth_middleware "github.com/vibevortex/core/internal/delivery/http/middleware/auth"
	"github.com/vibevortex/core/internal/model"
	service_session "github.com/vibevortex/core/internal/service/session"
	usecase_room "github.com/vibevortex/core/internal/usecase/room"
	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

type Controller struct {
	rooms    *usecase_room.Usecase
	users    *usecase_user.Usecase
	sessions *service_session.Service
	mw       *http_auth_middleware.Middleware
	logger   *slog.Logger
}

func New(
	rooms *usecase_room.Usecase,
	users *usecase_user.Usecase,
	sessions *service_session.Service,
	mw *http_auth_middleware.Middleware,
) *Controller {
	return &Controller{
		rooms:    rooms,
		users:    users,
		sessions: sessions,
		mw:       mw,
		logger:   slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	vortex := router.Group("/vortex", c.mw.AuthRequired())
	{
		vortex.GET("/me", c.me)
		vortex.GET("/new", c.mw.PremiumRequired(), c.newRoom)
		vortex.GET("/join/:roomCode", c.join)
		vortex.GET("/room/leave", c.leave)
		vortex.POST("/deactivate_room", c.deactivate)
		vortex.POST("/configure/save", c.saveConfiguration)
		vortex.GET("/room/preferences/:roomCode", c.preferences)
		vortex.POST("/room/players", c.players)
		vortex.POST("/users", c.usersInfo)
		vortex.GET("/lobby-line", c.lobbyLine)
	}
}

func validRoomCode(code string) bool {
	if len(code) != model.RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

type MeResponseDTO struct {
	http_common.Response
	UserID int64 `json:"userId"`
}

func (c *Controller) me(ctx *gin.Context) {
	sess := http_auth_middleware.Session(ctx)
	ctx.JSON(http.StatusOK, MeResponseDTO{
		Response: http_common.OK(),
		UserID:   sess.UserID,
	})
}

type NewRoomResponseDTO struct {
	http_common.Response
	RoomCode string `json:"roomCode"`
}

func (c *Controller) newRoom(ctx *gin.Context) {
	sess := http_auth_middleware.Session(ctx)

	code, err := c.rooms.NewRoom(ctx, sess.UserID)
	if err != nil {
		switch {
		case errors.Is(err, usecase_room.ErrAlreadyInRoom):
			ctx.JSON(http.StatusConflict, http_common.Fail("already in an active room"))
		case errors.Is(err, usecase_room.ErrRoomsUnavailable):
			ctx.JSON(http.StatusServiceUnavailable, http_common.Fail("no room codes available"))
		default:
			c.logger.Error("failed to create room", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	// The session remembers which room the caller hosts so host-only
	// endpoints and the relay can check cheaply.
	if err := c.sessions.Update(http_auth_middleware.Token(ctx), func(s *service_session.Session) {
		s.HostRoom = code
	}); err != nil {
		c.logger.Error("failed to bind host room to session", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusCreated, NewRoomResponseDTO{
		Response: http_common.OK(),
		RoomCode: code,
	})
}

func (c *Controller) join(ctx *gin.Context) {
	code := ctx.Param("roomCode")
	if !validRoomCode(code) {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid room code"))
		return
	}

	sess := http_auth_middleware.Session(ctx)
	if err := c.rooms.Join(ctx, code, sess.UserID); err != nil {
		switch {
		case errors.Is(err, usecase_room.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.Fail("room not found"))
		case errors.Is(err, usecase_room.ErrAlreadyInRoom):
			ctx.JSON(http.StatusConflict, http_common.Fail("already in another active room"))
		default:
			c.logger.Error("failed to join room",
				slog.String("room_code", code), slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

func (c *Controller) leave(ctx *gin.Context) {
	sess := http_auth_middleware.Session(ctx)

	if err := c.rooms.Leave(ctx, sess.UserID); err != nil {
		switch {
		case errors.Is(err, usecase_room.ErrNotInRoom):
			ctx.JSON(http.StatusNotFound, http_common.Fail("not in any active room"))
		case errors.Is(err, usecase_room.ErrHostCannotLeave):
			ctx.JSON(http.StatusForbidden, http_common.Fail("host cannot leave, deactivate the room instead"))
		default:
			c.logger.Error("failed to leave room", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

type RoomCodeRequestDTO struct {
	RoomCode string `json:"roomCode" binding:"required"`
}

func (c *Controller) deactivate(ctx *gin.Context) {
	var req RoomCodeRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}
	if !validRoomCode(req.RoomCode) {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid room code"))
		return
	}

	sess := http_auth_middleware.Session(ctx)
	if err := c.rooms.Deactivate(ctx, req.RoomCode, sess.UserID); err != nil {
		switch {
		case errors.Is(err, usecase_room.ErrResourceNotFound):
			ctx.JSON(http.StatusNotFound, http_common.Fail("room not found"))
		case errors.Is(err, usecase_room.ErrNotHost):
			ctx.JSON(http.StatusForbidden, http_common.Fail("only the host can deactivate the room"))
		default:
			c.logger.Error("failed to deactivate room",
				slog.String("room_code", req.RoomCode), slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		}
		return
	}

	if err := c.sessions.Update(http_auth_middleware.Token(ctx), func(s *service_session.Session) {
		s.HostRoom = ""
	}); err != nil {
		c.logger.Warn("failed to unbind host room from session", slog.String("error", err.Error()))
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

type SaveConfigurationRequestDTO struct {
	GameType    string         `json:"game_type" binding:"required"`
	Playlists   []string       `json:"playlists" binding:"required"`
	TrackLimit  int            `json:"track_limit"`
	DeviceID    string         `json:"device_id"`
	Preferences map[string]any `json:"preferences"`
}

func (c *Controller) saveConfiguration(ctx *gin.Context) {
	var req SaveConfigurationRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	sess := http_auth_middleware.Session(ctx)
	if sess.HostRoom == "" {
		ctx.JSON(http.StatusForbidden, http_common.Fail("only the host can configure the game"))
		return
	}

	err := c.rooms.SaveConfiguration(ctx, sess.HostRoom, model.GameConfig{
		GameType:    req.GameType,
		Playlists:   req.Playlists,
		TrackLimit:  req.TrackLimit,
		DeviceID:    req.DeviceID,
		Preferences: req.Preferences,
	})
	if err != nil {
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.Fail("room not found"))
			return
		}
		c.logger.Error("failed to save game configuration",
			slog.String("room_code", sess.HostRoom), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

type PreferencesResponseDTO struct {
	http_common.Response
	Preferences model.GameConfig `json:"preferences"`
}

func (c *Controller) preferences(ctx *gin.Context) {
	code := ctx.Param("roomCode")
	if !validRoomCode(code) {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid room code"))
		return
	}

	cfg, err := c.rooms.Preferences(ctx, code)
	if err != nil {
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.Fail("room not found"))
			return
		}
		c.logger.Error("failed to load preferences",
			slog.String("room_code", code), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, PreferencesResponseDTO{
		Response:    http_common.OK(),
		Preferences: cfg,
	})
}

type PlayersResponseDTO struct {
	http_common.Response
	Players []int64 `json:"players"`
}

func (c *Controller) players(ctx *gin.Context) {
	var req RoomCodeRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}
	if !validRoomCode(req.RoomCode) {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid room code"))
		return
	}

	players, err := c.rooms.Players(ctx, req.RoomCode)
	if err != nil {
		if errors.Is(err, usecase_room.ErrResourceNotFound) {
			ctx.JSON(http.StatusNotFound, http_common.Fail("room not found"))
			return
		}
		c.logger.Error("failed to load players",
			slog.String("room_code", req.RoomCode), slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, PlayersResponseDTO{
		Response: http_common.OK(),
		Players:  players,
	})
}

type UsersInfoRequestDTO struct {
	UserIDs []int64 `json:"userIds" binding:"required"`
}

type UsersInfoResponseDTO struct {
	http_common.Response
	Users []model.UserInfo `json:"users"`
}

func (c *Controller) usersInfo(ctx *gin.Context) {
	var req UsersInfoRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	users, err := c.users.UsersInfo(ctx, req.UserIDs)
	if err != nil {
		c.logger.Error("failed to load user info", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, UsersInfoResponseDTO{
		Response: http_common.OK(),
		Users:    users,
	})
}

type LobbyLineResponseDTO struct {
	http_common.Response
	Line string `json:"line"`
}

func (c *Controller) lobbyLine(ctx *gin.Context) {
	line, err := c.users.RandomLobbyLine(ctx)
	if err != nil {
		if errors.Is(err, usecase_user.ErrNoLobbyLines) {
			ctx.JSON(http.StatusNotFound, http_common.Fail("no lobby lines configured"))
			return
		}
		c.logger.Error("failed to pick lobby line", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.JSON(http.StatusOK, LobbyLineResponseDTO{
		Response: http_common.OK(),
		Line:     line,
	})
}
