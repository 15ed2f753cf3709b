package router

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/config"
	"github.com/oksasatya/tourguide-auth/internal/application"
	"github.com/oksasatya/tourguide-auth/internal/container"
	repouser "github.com/oksasatya/tourguide-auth/internal/domain/repository"
	handlers "github.com/oksasatya/tourguide-auth/internal/interface/http"
	"github.com/oksasatya/tourguide-auth/internal/interface/middleware"
	"github.com/oksasatya/tourguide-auth/internal/router/modules"
	"github.com/oksasatya/tourguide-auth/pkg/helpers"
	"github.com/oksasatya/tourguide-auth/pkg/mailer"
)

// Deps are the collaborators the HTTP modules are built from. Indexer and Photos may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Redis    *redis.Client
	Users    repouser.UserRepository
	Hasher   helpers.PasswordHasher
	Tokens   *helpers.JWTManager
	Notifier mailer.Notifier
	Indexer  application.UserIndexer
	Photos   application.PhotoStorage
}

// DepsFromContainer collects the singletons registered by cmd/main.go.
func DepsFromContainer() Deps {
	cfg := container.GetConfig()
	d := Deps{
		Config:   cfg,
		Logger:   container.GetLogger(),
		Redis:    container.GetRedis(),
		Users:    container.GetUsers(),
		Hasher:   helpers.NewBcryptHasher(cfg.BcryptCost),
		Tokens:   container.GetJWT(),
		Notifier: container.GetNotifier(),
	}
	if idx := container.GetUserIndex(); idx != nil {
		d.Indexer = idx
	}
	if photos := container.GetPhotoStorage(); photos != nil {
		d.Photos = photos
	}
	return d
}

// Services builds the application layer shared by every module.
func (d Deps) Services() (*application.AuthService, *application.UserService) {
	resets := application.NewResetTokenManager(d.Users, d.Config.PasswordResetTTL)
	auth := application.NewAuthService(d.Users, d.Hasher, d.Tokens, resets, d.Notifier, d.Logger)
	auth.Indexer = d.Indexer
	auth.AppName = d.Config.AppName
	users := application.NewUserService(d.Users, d.Indexer, d.Photos, d.Logger)
	return auth, users
}

// InitModules initializes all application modules and registers them with the router registry.
// Call it once during startup, before RegisterAll.
func InitModules(r *Registry, d Deps) {
	cfg := d.Config
	auth, users := d.Services()
	protect := middleware.Protect(auth, d.Logger)

	limit := modules.RateLimit{Max: cfg.RateLimitMax, Window: cfg.RateLimitWindow}
	if !cfg.RateLimitEnabled {
		limit.Max = 0
	}
	// Behind an untrusted proxy every peer looks private, so the private bypass is local-only.
	switch cidrs := cfg.RateLimitAllowCIDRs(); {
	case len(cidrs) > 0:
		limit.Allow = middleware.AllowCIDRs(cidrs...)
	case cfg.Env == "development":
		limit.Allow = middleware.AllowPrivateIP()
	}

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(auth, d.Logger, cfg.ResetPasswordURL), protect, d.Redis, limit))
	r.Add(modules.NewUserModule(handlers.NewUserHandler(users, d.Logger), protect, d.Logger))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(d.Redis, modules.RateLimit{Max: 120, Window: time.Minute}))
	}
}
