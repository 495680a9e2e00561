// internal/app/server.go
package app

import (
	"context"
	"fmt"

	"signroom-service/internal/config"
	"signroom-service/internal/db"
	opsHandler "signroom-service/internal/handlers/ops"
	signingHandler "signroom-service/internal/handlers/signing"
	"signroom-service/internal/middleware"
	"signroom-service/internal/pkg/integrity"
	"signroom-service/internal/pkg/jwt"
	"signroom-service/internal/pkg/ratelimit"
	"signroom-service/internal/repository/postgres"
	"signroom-service/internal/service/email"
	signingService "signroom-service/internal/service/signing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Server struct {
	cfg    config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer() *Server {
	cfg := config.Load()
	engine := gin.New()
	return &Server{cfg: cfg, engine: engine}
}

func (s *Server) Start() error {
	ctx := context.Background()

	// ----- Logger -----
	logger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	s.logger = logger

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, s.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	// ----- Redis -----
	redisClient, err := db.NewRedisClient(db.RedisConfig{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPass,
		DB:       0,
		PoolSize: 10,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	logger.Info("connected to Redis")

	// ----- Integrity hasher -----
	hasher, err := integrity.NewHasher([]byte(s.cfg.IntegritySecret))
	if err != nil {
		return fmt.Errorf("failed to build integrity hasher: %w", err)
	}

	// ----- Staff JWT -----
	jwtManager, err := jwt.LoadAndBuild(s.cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to load JWT manager: %w", err)
	}

	// ----- Repositories -----
	sessionRepo := postgres.NewSessionRepository(pool)
	signatureRepo := postgres.NewSignatureRepository(pool)

	// ----- Services -----
	emailSender := email.NewEmailSender(
		s.cfg.SMTPHost,
		s.cfg.SMTPPort,
		s.cfg.SMTPUser,
		s.cfg.SMTPPass,
		s.cfg.SMTPFromName,
		s.cfg.SMTPSecure,
		s.cfg.PublicBaseURL,
	)
	if s.cfg.SMTPHost == "" {
		emailSender = nil
		logger.Warn("SMTP_HOST not set, signing links will not be emailed")
	}

	svc := signingService.NewService(sessionRepo, signatureRepo, hasher, s.cfg.SessionLifetime, logger)

	// ----- Handlers & middleware -----
	handler := signingHandler.NewSigningHandler(svc, emailSender, logger)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager.Verifier)
	limiter := ratelimit.NewLimiter(redisClient)

	s.engine.Use(
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)

	SetupRouter(s.engine, &Handlers{
		Signing:        handler,
		Ops:            opsHandler.NewOpsHandler(limiter, logger),
		AuthMiddleware: authMiddleware,
		CompletionRateLimit: middleware.CompletionRateLimit(
			limiter, s.cfg.CompletionMaxAttempts, s.cfg.CompletionWindow, logger,
		),
	})

	logger.Info("server starting", zap.String("addr", s.cfg.HTTPAddr))
	return s.engine.Run(s.cfg.HTTPAddr)
}
