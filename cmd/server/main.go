package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-api/internal/authz"
	"github.com/yukikurage/team-task-api/internal/config"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/database"
	"github.com/yukikurage/team-task-api/internal/handlers"
	"github.com/yukikurage/team-task-api/internal/identity"
	"github.com/yukikurage/team-task-api/internal/middleware"
	"github.com/yukikurage/team-task-api/internal/repository"
	"github.com/yukikurage/team-task-api/internal/services"
	"github.com/yukikurage/team-task-api/internal/storage"
	"github.com/yukikurage/team-task-api/internal/utils"
	"github.com/yukikurage/team-task-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	logger.Init(cfg.Logging.Level)
	gin.SetMode(cfg.Server.Mode)
	if cfg.JWT.Secret == config.DefaultJWTSecret {
		logger.Warn().Msg("using the default JWT secret; set JWT_SECRET in production")
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn().Err(err).Msg("sentry disabled")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(ctx, cfg.Database, cfg.Server.Mode == gin.DebugMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Warn().Err(err).Msg("failed to close database")
		}
	}()

	// Run migrations
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	utils.RegisterValidators()

	files, err := storage.NewLocalStore(cfg.Storage.UploadDir, cfg.Storage.MaxUploadBytes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	userRepo := repository.NewUserRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	tokens := utils.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	policy := authz.Policy{AdminBypass: cfg.Authz.AdminBypass}

	local := identity.NewLocalResolver(userRepo)
	var resolver identity.Resolver = local
	if cfg.Identity.Mode == "remote" {
		resolver = identity.NewHTTPResolver(identity.HTTPConfig{
			BaseURL:    cfg.Identity.URL,
			ServiceKey: cfg.Identity.ServiceKey,
			Timeout:    cfg.Identity.Timeout,
			Retries:    cfg.Identity.Retries,
		})
		logger.Info().Str("url", cfg.Identity.URL).Msg("resolving identities remotely")
	}

	// Initialize AI service
	var generator services.TaskGenerator
	if ai := services.NewAIService(cfg.OpenAI.APIKey, cfg.OpenAI.Model); ai != nil {
		generator = ai
	} else {
		logger.Info().Msg("OPENAI_API_KEY not set; task generation disabled")
	}

	authService := services.NewAuthService(userRepo, tokens)
	if err := authService.SeedAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed admin user")
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.SentryHub())
	r.Use(logger.GinLogger())
	r.Use(logger.GinRecovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", constants.HeaderAuthorization, constants.HeaderRequestID},
		ExposeHeaders: []string{constants.HeaderRequestID, "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))

	handlers.RegisterRoutes(r, handlers.Deps{
		AuthService:       authService,
		UserService:       services.NewUserService(userRepo, policy),
		TeamService:       services.NewTeamService(teamRepo, userRepo, files, policy),
		TaskService:       services.NewTaskService(taskRepo, teamRepo, files, generator, policy),
		CommentService:    services.NewCommentService(commentRepo, taskRepo, teamRepo, policy),
		AttachmentService: services.NewAttachmentService(attachmentRepo, taskRepo, teamRepo, files, policy),
		Tokens:            tokens,
		Resolver:          resolver,
		LocalIdentity:     local,
		DB:                db,
		ServiceKey:        cfg.Identity.ServiceKey,
		AuthRateLimit:     middleware.NewRateLimiter(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware(),
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
