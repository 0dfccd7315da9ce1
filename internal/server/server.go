package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/scythe504/skribblr-party/internal/config"
	"github.com/scythe504/skribblr-party/internal/game"
)

type Server struct {
	port           int
	allowedOrigins []string
	hub            *game.Hub
}

func NewServer(cfg config.Config, hub *game.Hub) *http.Server {
	s := &Server{
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		hub:            hub,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
