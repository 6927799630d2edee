package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/billvault/billvault/internal/auth"
	"github.com/billvault/billvault/internal/config"
	"github.com/billvault/billvault/internal/identity"
	"github.com/billvault/billvault/internal/ledger"
	"github.com/billvault/billvault/internal/middleware"
	"github.com/billvault/billvault/internal/notification"
	"github.com/billvault/billvault/internal/reset"
	"github.com/billvault/billvault/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
	Mailer notification.Mailer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	var walletRepo wallet.Repository
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
	} else {
		walletRepo = wallet.NewMemoryRepository()
	}
	walletSvc := wallet.NewService(walletRepo, ledgerBackend)

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)

	issuer := auth.NewIssuer(d.Cfg.JWTSecret, d.Cfg.SessionTTL)
	authSvc := auth.NewService(identitySvc, walletSvc, issuer, d.Logger)

	var tokenStore reset.TokenStore
	if d.Cache != nil {
		tokenStore = reset.NewRedisStore(d.Cache)
	} else {
		tokenStore = reset.NewMemoryStore()
	}

	mailer := d.Mailer
	if mailer == nil {
		mailer = notification.NewLogMailer(d.Logger, d.Cfg.BaseURL)
	}
	resetCoordinator := reset.NewCoordinator(identitySvc, tokenStore, mailer, d.Cfg.ResetTokenTTL, d.Logger)
	app.Hooks().OnShutdown(func() error {
		resetCoordinator.Drain()
		return nil
	})

	authHandler := auth.NewHandler(authSvc, resetCoordinator, d.Cfg.SessionTTL, !d.Cfg.IsDev())
	walletHandler := wallet.NewHandler(walletSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMinute)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	sessionmw := middleware.SessionAuth(issuer, identityRepo)
	protected := api.Group("", sessionmw)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := identityRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
		}
		return c.JSON(fiber.Map{
			"id":            user.ID,
			"email":         user.Email,
			"first_name":    user.FirstName,
			"last_name":     user.LastName,
			"phone":         user.Phone,
			"referral_code": user.ReferralCode,
			"created_at":    user.CreatedAt,
		})
	})
	RegisterWalletRoutes(protected, walletHandler, d)

	return nil
}
