package http_auth_middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	http_common "github.com/vibevortex/core/internal/delivery/http/common"
	service_session "github.com/vibevortex/core/internal/service/session"
)

type Middleware struct {
	sessions *service_session.Service
	logger   *slog.Logger
}

func New(sessions *service_session.Service) *Middleware {
	return &Middleware{
		sessions: sessions,
		logger:   slog.Default(),
	}
}

// AuthRequired loads the caller's session from the cookie token and parks
// it in the gin context for handlers downstream.
func (m *Middleware) AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(http_common.SessionCookie)
		if err != nil || token == "" {
			ctx.JSON(http.StatusUnauthorized, http_common.Fail("not logged in"))
			ctx.Abort()
			return
		}

		sess, err := m.sessions.Get(token)
		if err != nil {
			if errors.Is(err, service_session.ErrNoSession) {
				ctx.JSON(http.StatusUnauthorized, http_common.Fail("session expired"))
				ctx.Abort()
				return
			}
			m.logger.Error("failed to load session", slog.String("error", err.Error()))
			ctx.JSON(http.StatusInternalServerError, http_common.Fail("internal error"))
			ctx.Abort()
			return
		}

		ctx.Set(http_common.CtxSessionToken, token)
		ctx.Set(http_common.CtxSession, sess)
		ctx.Next()
	}
}

// PremiumRequired gates endpoints that drive Spotify playback. Runs after
// AuthRequired.
func (m *Middleware) PremiumRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		sess := Session(ctx)
		if sess.SpotifyID == "" {
			ctx.JSON(http.StatusForbidden, http_common.Fail("spotify account not linked"))
			ctx.Abort()
			return
		}
		if !sess.Premium {
			ctx.JSON(http.StatusForbidden, http_common.Fail("spotify premium required"))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// AdminRequired runs after AuthRequired.
func (m *Middleware) AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !Session(ctx).Admin {
			ctx.JSON(http.StatusForbidden, http_common.Fail("forbidden"))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// Session pulls the session the middleware stored. Zero value when the
// chain did not run AuthRequired, which no registered route skips.
func Session(ctx *gin.Context) service_session.Session {
	raw, ok := ctx.Get(http_common.CtxSession)
	if !ok {
		return service_session.Session{}
	}
	sess, _ := raw.(service_session.Session)
	return sess
}

func Token(ctx *gin.Context) string {
	return ctx.GetString(http_common.CtxSessionToken)
}
