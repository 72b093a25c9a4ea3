package server

import (
	"context"
	"log/slog"

	"backend-stagehunter/internal/colour"
	"backend-stagehunter/internal/config"
	"backend-stagehunter/internal/session"
	"backend-stagehunter/internal/stage"
	"backend-stagehunter/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Stages   *stage.Service
	Sessions *session.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: originsOrDefault(cfg.CORSOrigins),
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	log := slog.Default()
	hub := stream.NewHub(redisClient, log)
	stages := stage.NewService(db, redisClient, cfg.CacheTTL, log)

	var store *session.Store
	if db != nil {
		store = session.NewStore(db)
	}

	sessions := session.NewManager(stages, hub, session.Options{
		Resolution: cfg.GradientResolution,
		Store:      store,
		Logger:     log,
	})

	s := &Server{
		App:      app,
		Cfg:      cfg,
		DB:       db,
		Redis:    redisClient,
		Stream:   hub,
		Stages:   stages,
		Sessions: sessions,
	}

	registerRoutes(s)
	return s
}

func originsOrDefault(origins string) string {
	if origins == "" {
		return "*"
	}
	return origins
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := s.App.Group("/api")
	stage.RegisterRoutes(api, s.Stages, stage.RouteOptions{
		Resolution: s.Cfg.GradientResolution,
		TopN:       s.Cfg.TopNDefault,
		Mapper:     colour.NewMapper(slopeOrDefault(s.Cfg.SigmoidSlope), s.Cfg.FlipColours),
	})
	session.RegisterRoutes(api, s.Sessions, s.Stream)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

func slopeOrDefault(slope float64) float64 {
	if slope <= 0 {
		return colour.DefaultSlope
	}
	return slope
}

// Start runs background housekeeping until ctx is done.
func (s *Server) Start(ctx context.Context) {
	if s.Cfg.SessionSweepEvery <= 0 || s.Cfg.SessionIdleTimeout <= 0 {
		return
	}
	go s.Sessions.RunSweeper(ctx, s.Cfg.SessionSweepEvery, s.Cfg.SessionIdleTimeout)
}

// Close ends open sessions and stops the stream relay. The pool and Redis
// client belong to the caller.
func (s *Server) Close(ctx context.Context) {
	s.Sessions.CloseAll(ctx)
	s.Stream.Close()
}
