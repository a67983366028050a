package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tribalscale/moneytransfer/internal/domain/transfer"
	"github.com/tribalscale/moneytransfer/internal/service"
)

// AccountController handles the money-movement endpoints: transferring funds
// between accounts and reading account details.
type AccountController struct {
	transferService *service.TransferService
}

func NewAccountController(transferService *service.TransferService) *AccountController {
	return &AccountController{transferService: transferService}
}

// Transfer handles POST /account/transfer. Success is a bare 200; error
// bodies carry only the numeric code and a generic message.
func (h *AccountController) Transfer(w http.ResponseWriter, r *http.Request) {
	var payload TransferRequestPayload
	if err := decodeAndValidate(r, &payload); err != nil {
		writeError(w, err)
		return
	}

	log.Info().
		Str("source_account", payload.SourceAccount).
		Str("target_account", payload.TargetAccount).
		Float64("amount", payload.Amount).
		Msg("received transfer request")

	mt, err := transfer.NewMoneyTransfer(
		payload.SourceAccount,
		payload.TargetAccount,
		floatToCents(payload.Amount),
		payload.Currency,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.transferService.Transfer(r.Context(), mt); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Get handles GET /account/{id}.
func (h *AccountController) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := validateAccountID(id); err != nil {
		writeError(w, err)
		return
	}

	log.Info().Str("account_id", id).Msg("received request for account details")

	acct, err := h.transferService.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FromAccount(acct))
}
