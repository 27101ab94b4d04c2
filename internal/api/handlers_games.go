package api

import (
	"net/http"

	"github.com/quarryworks/craftbank/pkg/entities"
	"github.com/quarryworks/craftbank/pkg/services/games"
)

type gameResponse struct {
	Account *entities.Account `json:"account"`
	Payout  int64             `json:"payout"`
	Won     bool              `json:"won"`
	Message string            `json:"message"`
	Drawn   int               `json:"drawn,omitempty"`
}

func toGameResponse(o *games.Outcome) gameResponse {
	return gameResponse{
		Account: o.Account,
		Payout:  o.Payout,
		Won:     o.Won,
		Message: o.Message,
		Drawn:   o.Drawn,
	}
}

type numberDrawRequest struct {
	Username string `json:"username" validate:"required"`
	Wager    int64  `json:"wager" validate:"required,gt=0"`
	Pick     int    `json:"pick" validate:"required,min=1,max=10"`
}

// NumberDraw handles POST /api/games/numberdraw
func (h *Handler) NumberDraw(w http.ResponseWriter, r *http.Request) {
	var req numberDrawRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "username, a positive wager and a pick in [1,10] are required")
		return
	}

	outcome, err := h.games.NumberDraw(r.Context(), req.Username, req.Wager, req.Pick)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGameResponse(outcome))
}

type cardDuelRequest struct {
	Username   string `json:"username" validate:"required"`
	Wager      int64  `json:"wager" validate:"required,gt=0"`
	Won        bool   `json:"won"`
	PlayerHand int    `json:"player_hand"`
	DealerHand int    `json:"dealer_hand"`
}

// CardDuel handles POST /api/games/cardduel
func (h *Handler) CardDuel(w http.ResponseWriter, r *http.Request) {
	var req cardDuelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "username and a positive wager are required")
		return
	}

	outcome, err := h.games.CardDuel(r.Context(), req.Username, req.Wager, req.Won, req.PlayerHand, req.DealerHand)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGameResponse(outcome))
}

type pegDropRequest struct {
	Username   string  `json:"username" validate:"required"`
	Wager      int64   `json:"wager" validate:"required,gt=0"`
	WinAmount  int64   `json:"win_amount" validate:"min=0"`
	Multiplier float64 `json:"multiplier" validate:"min=0"`
}

// PegDrop handles POST /api/games/pegdrop
func (h *Handler) PegDrop(w http.ResponseWriter, r *http.Request) {
	var req pegDropRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "username and a positive wager are required")
		return
	}

	outcome, err := h.games.PegDrop(r.Context(), req.Username, req.Wager, req.WinAmount, req.Multiplier)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toGameResponse(outcome))
}
