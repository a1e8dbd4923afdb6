package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consultant-access/internal/config"
	"consultant-access/internal/delivery/http/handler"
	"consultant-access/internal/domain/admin"
	"consultant-access/internal/domain/audit"
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/infrastructure/database/memory"
	"consultant-access/internal/infrastructure/database/postgres"
	"consultant-access/internal/logger"
	"consultant-access/internal/middleware"
	"consultant-access/internal/notification"
	"consultant-access/internal/ratelimit"
	"consultant-access/internal/routes"
	auditUC "consultant-access/internal/usecase/audit"
	"consultant-access/internal/usecase/auth"
	"consultant-access/internal/usecase/authz"
	consultantUC "consultant-access/internal/usecase/consultant"
	"consultant-access/internal/usecase/lockout"
	"consultant-access/internal/usecase/token"
	"consultant-access/pkg/jwt"
	"consultant-access/pkg/mqtt"
	"consultant-access/pkg/secret"

	"go.uber.org/zap"
)

type repositories struct {
	consultants consultant.Repository
	admins      admin.Repository
	audit       audit.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("notify_driver", cfg.Notification.Driver),
	)

	checks := make(map[string]handler.HealthCheck)

	var repos repositories
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("Using in-memory storage, data is lost on restart")
		repos = repositories{
			consultants: memory.NewConsultantRepository(),
			admins:      memory.NewAdminRepository(),
			audit:       memory.NewAuditRepository(),
		}
	default:
		db, err := postgres.NewDB(cfg)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database connection", zap.Error(err))
			}
		}()
		if err := db.Migrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
		checks["database"] = db.Health
		repos = repositories{
			consultants: postgres.NewConsultantRepository(db),
			admins:      postgres.NewAdminRepository(db),
			audit:       postgres.NewAuditRepository(db),
		}
	}

	dispatcher, disconnect := newDispatcher(cfg, checks)
	notifier := notification.NewAsync(dispatcher, cfg.Notification.Timeout)
	defer disconnect()
	defer notifier.Close()

	var limitStore ratelimit.Store
	if cfg.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer client.Close()
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		limitStore = ratelimit.NewRedisStore(client)
	} else {
		memStore := ratelimit.NewMemoryStore()
		defer memStore.Close()
		limitStore = memStore
	}

	hasher := secret.NewPasswordHasher(cfg.Security.BcryptCost)
	recorder := auditUC.NewRecorder(repos.audit)

	authService := auth.NewService(
		repos.consultants,
		repos.admins,
		hasher,
		jwt.NewCodec(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry()),
		lockout.NewPolicy(cfg.Security.LockoutThreshold, cfg.Security.LockoutDuration),
		recorder,
	)
	issuer := token.NewIssuer(repos.consultants, cfg.Security.SetupTokenTTL, cfg.Security.AppBaseURL)
	consultantService := consultantUC.NewService(
		repos.consultants,
		hasher,
		issuer,
		notifier,
		recorder,
	)

	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	if interval := cfg.Security.TokenCleanup; interval > 0 {
		go issuer.StartCleanupJob(jobCtx, interval)
	}

	seed := cfg.AdminSeed
	if err := authService.SeedAdmin(context.Background(), seed.Email, seed.Password, seed.DisplayName); err != nil {
		logger.Fatal("Failed to seed admin account", zap.Error(err))
	}

	generalLimiter := middleware.NewRateLimiter(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst)
	defer generalLimiter.Close()

	router := routes.SetupRoutes(routes.Dependencies{
		Config:         cfg,
		Auth:           authService,
		Consultants:    consultantService,
		Audit:          recorder,
		Guard:          authz.NewGuard(consultantService),
		LimitStore:     limitStore,
		GeneralLimiter: generalLimiter,
		HealthChecks:   checks,
	})

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}

// newDispatcher picks the delivery channel for account emails. The returned
// func releases whatever connection the channel holds.
func newDispatcher(cfg *config.Config, checks map[string]handler.HealthCheck) (notification.Dispatcher, func()) {
	switch cfg.Notification.Driver {
	case "smtp":
		s := cfg.SMTP
		return notification.NewSMTPDispatcher(s.Host, s.Port, s.User, s.Password, s.From), func() {}
	case "mqtt":
		m := cfg.MQTT
		client := mqtt.NewClient(mqtt.DefaultConfig(m.Broker, m.ClientID, m.Username, m.Password))
		if err := client.Connect(); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		checks["mqtt"] = client.Health
		return notification.NewMQTTDispatcher(client, m.NotifyTopic), client.Disconnect
	default:
		return notification.NewLogDispatcher(), func() {}
	}
}
