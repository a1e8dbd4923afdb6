package routes

import (
	"consultant-access/internal/config"
	"consultant-access/internal/delivery/http/handler"
	"consultant-access/internal/domain/consultant"
	"consultant-access/internal/logger"
	"consultant-access/internal/middleware"
	"consultant-access/internal/ratelimit"
	auditUC "consultant-access/internal/usecase/audit"
	"consultant-access/internal/usecase/auth"
	"consultant-access/internal/usecase/authz"
	consultantUC "consultant-access/internal/usecase/consultant"

	"github.com/gin-gonic/gin"
)

// Guards is the access-control surface handed to feature modules.
type Guards struct {
	Authenticate gin.HandlerFunc
	Admin        gin.HandlerFunc
	Consultant   gin.HandlerFunc
	Permission   func(capability consultant.Capability) gin.HandlerFunc
}

// FeatureModule is implemented by route groups built on top of the access
// layer, such as consultant profile management.
type FeatureModule interface {
	RegisterRoutes(router *gin.RouterGroup, guards Guards)
}

type Dependencies struct {
	Config         *config.Config
	Auth           *auth.Service
	Consultants    *consultantUC.Service
	Audit          *auditUC.Recorder
	Guard          *authz.Guard
	LimitStore     ratelimit.Store
	GeneralLimiter *middleware.RateLimiter
	HealthChecks   map[string]handler.HealthCheck
	Modules        []FeatureModule
}

func SetupRoutes(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order: recovery, request ID, logging, security headers, CORS, request size limit, general rate limit, audit metadata
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.Server.Environment == "production"))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes))
	if deps.GeneralLimiter != nil {
		router.Use(deps.GeneralLimiter.Middleware())
	}
	router.Use(middleware.RequestMetaMiddleware())

	router.NoRoute(handler.NotFound)

	healthHandler := handler.NewHealthHandler(deps.HealthChecks)
	router.GET("/health", healthHandler.Health)

	authHandler := handler.NewAuthHandler(deps.Auth, deps.Consultants)
	consultantHandler := handler.NewConsultantHandler(deps.Consultants)
	auditHandler := handler.NewAuditHandler(deps.Audit)

	limits := cfg.RateLimit
	loginLimit := middleware.WindowLimit(deps.LimitStore, middleware.Tier{
		Name:           "login",
		Limit:          limits.LoginLimit,
		Window:         limits.LoginWindow,
		Key:            middleware.ByIPAndIdentifier("identifier", "email"),
		SkipSuccessful: true,
	})
	registerLimit := middleware.WindowLimit(deps.LimitStore, middleware.Tier{
		Name:   "register",
		Limit:  limits.RegisterLimit,
		Window: limits.RegisterWindow,
	})
	resetLimit := middleware.WindowLimit(deps.LimitStore, middleware.Tier{
		Name:   "reset",
		Limit:  limits.ResetLimit,
		Window: limits.ResetWindow,
	})
	setPasswordLimit := middleware.WindowLimit(deps.LimitStore, middleware.Tier{
		Name:   "set_password",
		Limit:  limits.ResetLimit,
		Window: limits.ResetWindow,
	})
	resendLimit := middleware.WindowLimit(deps.LimitStore, middleware.Tier{
		Name:   "resend_setup",
		Limit:  limits.ResendLimit,
		Window: limits.ResendWindow,
		Key:    middleware.ByPrincipal,
	})

	guards := Guards{
		Authenticate: middleware.Authenticate(deps.Auth),
		Admin:        middleware.AdminOnly(deps.Guard),
		Consultant:   middleware.ConsultantOnly(deps.Guard),
		Permission: func(capability consultant.Capability) gin.HandlerFunc {
			return middleware.RequirePermission(deps.Guard, capability)
		},
	}

	v1 := router.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1, handler.AuthLimits{
			Login:       loginLimit,
			Register:    registerLimit,
			Reset:       resetLimit,
			SetPassword: setPasswordLimit,
		})

		protected := v1.Group("")
		protected.Use(guards.Authenticate)
		{
			authHandler.RegisterSessionRoutes(protected)

			admin := protected.Group("/admin")
			admin.Use(guards.Admin)
			{
				consultantHandler.RegisterAdminRoutes(admin, resendLimit)
				auditHandler.RegisterAdminRoutes(admin)
			}
		}

		for _, module := range deps.Modules {
			module.RegisterRoutes(v1, guards)
		}
	}

	logger.Info("All routes initialized")
	return router
}
