package http_spotify

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	http_common "github.com/vibevortex/core/internal/delivery/http/common"
	http_auth_middleware "github.com/vibevortex/core/internal/delivery/http/middleware/auth"
	infra_spotify "github.com/vibevortex/core/internal/infra/spotify"
	service_session "github.com/vibevortex/core/internal/service/session"
	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

type Controller struct {
	spotify  *infra_spotify.Client
	users    *usecase_user.Usecase
	sessions *service_session.Service
	mw       *http_auth_middleware.Middleware
	logger   *slog.Logger
}

func New(
	spotify *infra_spotify.Client,
	users *usecase_user.Usecase,
	sessions *service_session.Service,
	mw *http_auth_middleware.Middleware,
) *Controller {
	return &Controller{
		spotify:  spotify,
		users:    users,
		sessions: sessions,
		mw:       mw,
		logger:   slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	spotify := router.Group("/spotify", c.mw.AuthRequired())
	{
		spotify.GET("/code", c.code)
		spotify.GET("/authorize", c.authorize)
		spotify.GET("/play", c.mw.PremiumRequired(), c.play)
		spotify.GET("/my_playlists", c.myPlaylists)
		spotify.GET("/devices", c.devices)
		spotify.POST("/aggregate_playlists", c.aggregatePlaylists)
	}
}

// sessionToken rebuilds an oauth token from what the session holds.
func sessionToken(sess service_session.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
}

// code sends the browser to Spotify's consent page. The session token
// doubles as the oauth state parameter.
func (c *Controller) code(ctx *gin.Context) {
	state := http_auth_middleware.Token(ctx)
	ctx.Redirect(http.StatusTemporaryRedirect, c.spotify.AuthURL(state))
}

// authorize is the oauth callback: exchanges the code, records the
// spotify identity on the user row and parks the tokens in the session.
func (c *Controller) authorize(ctx *gin.Context) {
	if state := ctx.Query("state"); state != http_auth_middleware.Token(ctx) {
		ctx.JSON(http.StatusForbidden, http_common.Fail("oauth state mismatch"))
		return
	}

	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("missing authorization code"))
		return
	}

	token, err := c.spotify.Exchange(ctx, code)
	if err != nil {
		c.logger.Error("spotify code exchange failed", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadGateway, http_common.Fail("spotify authorization failed"))
		return
	}

	spotifyID, premium, err := c.spotify.UserInfo(ctx, token)
	if err != nil {
		c.logger.Error("failed to fetch spotify profile", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadGateway, http_common.Fail("spotify authorization failed"))
		return
	}

	sess := http_auth_middleware.Session(ctx)
	if err := c.users.LinkSpotify(ctx, sess.UserID, spotifyID); err != nil {
		c.logger.Error("failed to link spotify account", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	err = c.sessions.Update(http_auth_middleware.Token(ctx), func(s *service_session.Session) {
		s.SpotifyID = spotifyID
		s.Premium = premium
		s.AccessToken = token.AccessToken
		s.RefreshToken = token.RefreshToken
	})
	if err != nil {
		c.logger.Error("failed to store spotify tokens", slog.String("error", err.Error()))
		ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
		return
	}

	ctx.Redirect(http.StatusTemporaryRedirect, "/")
}

func (c *Controller) play(ctx *gin.Context) {
	uri := ctx.Query("uri")
	if uri == "" {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("missing track uri"))
		return
	}

	sess := http_auth_middleware.Session(ctx)
	if err := c.spotify.Play(ctx, sessionToken(sess), uri, ctx.Query("device_id")); err != nil {
		c.logger.Error("failed to start playback",
			slog.String("uri", uri), slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadGateway, http_common.Fail("failed to start playback"))
		return
	}

	ctx.JSON(http.StatusOK, http_common.OK())
}

func (c *Controller) myPlaylists(ctx *gin.Context) {
	sess := http_auth_middleware.Session(ctx)
	if sess.AccessToken == "" {
		ctx.JSON(http.StatusForbidden, http_common.Fail("spotify account not linked"))
		return
	}

	playlists, err := c.spotify.Playlists(ctx, sessionToken(sess))
	if err != nil {
		c.logger.Error("failed to list playlists", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadGateway, http_common.Fail("failed to list playlists"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":   true,
		"playlists": playlists,
	})
}

func (c *Controller) devices(ctx *gin.Context) {
	sess := http_auth_middleware.Session(ctx)
	if sess.AccessToken == "" {
		ctx.JSON(http.StatusForbidden, http_common.Fail("spotify account not linked"))
		return
	}

	devices, err := c.spotify.Devices(ctx, sessionToken(sess))
	if err != nil {
		c.logger.Error("failed to list devices", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadGateway, http_common.Fail("failed to list devices"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"devices": devices,
	})
}

type AggregatePlaylistsRequestDTO struct {
	PlaylistIDs []string `json:"playlistIds" binding:"required"`
}

func (c *Controller) aggregatePlaylists(ctx *gin.Context) {
	var req AggregatePlaylistsRequestDTO
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, http_common.Fail("invalid request format"))
		return
	}

	sess := http_auth_middleware.Session(ctx)
	if sess.AccessToken == "" {
		ctx.JSON(http.StatusForbidden, http_common.Fail("spotify account not linked"))
		return
	}

	tracks, err := c.spotify.AggregateTracks(ctx, sessionToken(sess), req.PlaylistIDs)
	if err != nil {
		c.logger.Error("failed to aggregate playlists", slog.String("error", err.Error()))
		ctx.JSON(http.StatusBadGateway, http_common.Fail("failed to aggregate playlists"))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"tracks":  tracks,
	})
}
