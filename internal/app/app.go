package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/vibevortex/core/internal/config"
	http_admin "github.com/vibevortex/core/internal/delivery/http/admin"
	http_auth "github.com/vibevortex/core/internal/delivery/http/auth"
	http_init "github.com/vibevortex/core/internal/delivery/http/init"
	http_auth_middleware "github.com/vibevortex/core/internal/delivery/http/middleware/auth"
	http_spotify "github.com/vibevortex/core/internal/delivery/http/spotify"
	http_vortex "github.com/vibevortex/core/internal/delivery/http/vortex"
	ws_game "github.com/vibevortex/core/internal/delivery/ws/game"
	infra_pg_init "github.com/vibevortex/core/internal/infra/postgres/init"
	infra_postgres_room "github.com/vibevortex/core/internal/infra/postgres/room"
	infra_postgres_settings "github.com/vibevortex/core/internal/infra/postgres/settings"
	infra_postgres_user "github.com/vibevortex/core/internal/infra/postgres/user"
	infra_redis_init "github.com/vibevortex/core/internal/infra/redis/init"
	infra_session_cache "github.com/vibevortex/core/internal/infra/redis/session"
	infra_s3 "github.com/vibevortex/core/internal/infra/s3"
	infra_s3_avatar "github.com/vibevortex/core/internal/infra/s3/avatar"
	"github.com/vibevortex/core/internal/infra/s3mock"
	infra_spotify "github.com/vibevortex/core/internal/infra/spotify"
	"github.com/vibevortex/core/internal/registry"
	service_session "github.com/vibevortex/core/internal/service/session"
	usecase_room "github.com/vibevortex/core/internal/usecase/room"
	usecase_user "github.com/vibevortex/core/internal/usecase/user"
)

func Go(cfg *config.Config) {
	redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
	pgConn := infra_pg_init.MustEstablishConn(cfg.Postgres)
	infra_pg_init.MustMigrate(pgConn)

	var avatarStore usecase_user.AvatarStore
	if os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		avatarStore = s3mock.New()
	} else {
		s3conn := infra_s3.MustEstablishConn()
		var err error
		avatarStore, err = infra_s3_avatar.New("vibe-vortex-bucket", s3conn, "avatars/")
		if err != nil {
			panic(err)
		}
	}

	roomRepository := infra_postgres_room.New(pgConn)
	userRepository := infra_postgres_user.New(pgConn)
	settingsRepository := infra_postgres_settings.New(pgConn)

	roomUC := usecase_room.New(roomRepository, 5)
	userUC := usecase_user.New(userRepository, settingsRepository, avatarStore)

	if err := userUC.EnsureAdminAccount(context.Background(),
		cfg.Admin.Username, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		slog.Error("failed to ensure admin account", "error", err)
	}

	sessionCache := infra_session_cache.New(redisConn, "session_cache")
	sessions := service_session.New(sessionCache, nil)
	authMiddleware := http_auth_middleware.New(sessions)

	spotifyClient := infra_spotify.New(cfg.Spotify)

	reg := registry.New(slog.Default())
	hub := ws_game.NewHub(reg)
	go hub.Run()

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_auth.New(userUC, sessions))
	controllerPool.Add(http_vortex.New(roomUC, userUC, sessions, authMiddleware))
	controllerPool.Add(http_spotify.New(spotifyClient, userUC, sessions, authMiddleware))
	controllerPool.Add(http_admin.New(userUC, authMiddleware))
	controllerPool.Add(ws_game.NewController(hub))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
