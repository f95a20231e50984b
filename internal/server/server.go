// Package server wires the HTTP surface: router, middleware and routes.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"laf/internal/config"
	"laf/internal/domain/item"
	"laf/internal/domain/notification"
	"laf/internal/server/handlers"
	"laf/internal/service/messaging"
)

// Server represents the HTTP server.
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server with all routes mounted.
func NewServer(
	cfg config.ServerConfig,
	auth *handlers.Authenticator,
	mapService handlers.MapService,
	messagingService *messaging.Service,
	itemStore item.Store,
	notificationStore notification.Store,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	mapHandler := handlers.NewMapHandler(mapService, logger)
	messageHandler := handlers.NewMessageHandler(messagingService, logger)
	itemHandler := handlers.NewItemHandler(itemStore, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationStore, logger)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Use(auth.Middleware)

			// Map API
			r.Route("/map", func(r chi.Router) {
				r.Get("/items", mapHandler.GetMapItems)
				r.Get("/statistics", mapHandler.GetMapStatistics)
			})

			// Messaging API
			r.Route("/messages", func(r chi.Router) {
				r.Post("/", messageHandler.SendMessage)
				r.Get("/conversations", messageHandler.GetConversations)
				r.Get("/conversations/{id}", messageHandler.GetConversationMessages)
				r.Put("/read", messageHandler.MarkMessagesRead)
				r.Get("/unread-count", messageHandler.GetUnreadCount)
			})

			// Items API
			r.Route("/items", func(r chi.Router) {
				r.Post("/", itemHandler.CreateItem)
				r.Get("/", itemHandler.ListItems)
				r.Get("/{id}", itemHandler.GetItem)
				r.Put("/{id}/status", itemHandler.UpdateItemStatus)
				r.Delete("/{id}", itemHandler.DeleteItem)
			})

			// Notifications API
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.ListNotifications)
				r.Put("/read-all", notificationHandler.MarkAllNotificationsRead)
				r.Put("/{id}/read", notificationHandler.MarkNotificationRead)
				r.Delete("/{id}", notificationHandler.DeleteNotification)
			})
		})
	})

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
