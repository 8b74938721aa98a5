package ws_game

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // ! Tighten on NGINX setup
	},
}

type Controller struct {
	hub    *Hub
	logger *slog.Logger
}

func NewController(hub *Hub) *Controller {
	return &Controller{
		hub:    hub,
		logger: slog.Default(),
	}
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

func (c *Controller) serve(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(c.hub, conn, uuid.New().String())
	c.hub.register <- client

	go client.writePump()
	go client.readPump()
}
