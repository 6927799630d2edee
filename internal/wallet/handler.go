package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/billvault/billvault/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Me returns the authenticated user's wallet with its current balance.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	w, err := h.service.GetByOwner(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	bal, err := h.service.Balance(c.UserContext(), w.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "internal error")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"id":           w.ID,
		"account_code": w.AccountCode,
		"currency":     w.Currency,
		"status":       w.Status,
		"created_at":   w.CreatedAt,
		"balance":      bal.Amount,
		"as_of":        bal.AsOf,
	})
}

// Balance returns the wallet balance.
func (h *Handler) Balance(c *fiber.Ctx) error {
	walletID := c.Params("walletId")
	balance, err := h.service.Balance(c.UserContext(), walletID)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": walletID,
		"balance":   balance.Amount,
		"timestamp": balance.AsOf,
	})
}

type transferRequest struct {
	ToWalletID string `json:"to_wallet_id"`
	ClientTxID string `json:"client_tx_id"`
	Amount     int64  `json:"amount"`
}

// Transfer moves funds from the authenticated user's wallet to another wallet.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if uid == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthenticated")
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body")
	}
	from, err := h.service.GetByOwner(c.UserContext(), uid)
	if err != nil {
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	}
	res, err := h.service.Transfer(c.UserContext(), TransferInput{
		FromWalletID: from.ID,
		ToWalletID:   req.ToWalletID,
		ClientTxID:   req.ClientTxID,
		Amount:       req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTransfer), errors.Is(err, ErrNotFound):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			return fiber.NewError(http.StatusUnprocessableEntity, ledger.ErrInsufficientFunds.Error())
		case errors.Is(err, ledger.ErrDuplicateTransaction):
			// Replay of a known client tx id returns the original posting.
			return c.Status(http.StatusOK).JSON(fiber.Map{
				"transaction_id": res.TransactionID,
				"balance":        res.FromBalance,
				"replayed":       true,
			})
		default:
			return fiber.NewError(http.StatusInternalServerError, "internal error")
		}
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": res.TransactionID,
		"balance":        res.FromBalance,
	})
}
