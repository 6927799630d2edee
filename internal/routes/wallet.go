package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/billvault/billvault/internal/middleware"
	"github.com/billvault/billvault/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints. Transfers go through the
// idempotency middleware when Redis is available.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, d Deps) {
	r.Get("/wallets/me", h.Me)
	r.Get("/wallets/:walletId/balance", h.Balance)
	if d.Cache != nil {
		r.Post("/wallets/transfer", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger), h.Transfer)
	} else {
		r.Post("/wallets/transfer", h.Transfer)
	}
}
