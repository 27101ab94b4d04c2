package api

import (
	"github.com/quarryworks/craftbank/internal/config"
	"github.com/quarryworks/craftbank/internal/identity"
	"github.com/quarryworks/craftbank/pkg/services/games"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
	"github.com/quarryworks/craftbank/pkg/services/linking"
	"github.com/quarryworks/craftbank/pkg/services/payments"
)

// Handler wraps the services and exposes the HTTP surface.
type Handler struct {
	cfg      *config.Config
	ledger   *ledger.Service
	payments *payments.Service
	games    *games.Service
	linking  *linking.Service
	provider identity.Provider
}

// NewHandler returns a new Handler. The identity provider may be nil when
// the dashboard login surface is not configured.
func NewHandler(cfg *config.Config, ledgerSvc *ledger.Service, paymentsSvc *payments.Service, gamesSvc *games.Service, linkingSvc *linking.Service, provider identity.Provider) *Handler {
	return &Handler{
		cfg:      cfg,
		ledger:   ledgerSvc,
		payments: paymentsSvc,
		games:    gamesSvc,
		linking:  linkingSvc,
		provider: provider,
	}
}
