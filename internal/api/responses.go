package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"github.com/quarryworks/craftbank/pkg/repositories/queue"
	"github.com/quarryworks/craftbank/pkg/services/games"
	"github.com/quarryworks/craftbank/pkg/services/ledger"
	"github.com/quarryworks/craftbank/pkg/services/linking"
	"github.com/quarryworks/craftbank/pkg/services/payments"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("[API] Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes a request body into dest and validates it.
func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return err
	}
	return validate.Struct(dest)
}

// writeDomainError maps service-layer sentinel errors onto the HTTP
// conventions of the surface. Anything unmapped is an internal error and
// logged; expected business failures are not.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "unknown user")
	case errors.Is(err, payments.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "unknown payment")
	case errors.Is(err, queue.ErrCommandNotFound):
		writeError(w, http.StatusNotFound, "unknown command")
	case errors.Is(err, payments.ErrAlreadyResolved):
		writeError(w, http.StatusConflict, "payment already resolved")
	case errors.Is(err, linking.ErrIdentityLinked):
		writeError(w, http.StatusConflict, "identity already linked")
	case errors.Is(err, linking.ErrCodeNotFound):
		writeError(w, http.StatusNotFound, "invalid linking code")
	case errors.Is(err, linking.ErrCodeExpired):
		writeError(w, http.StatusGone, "linking code expired")
	case errors.Is(err, linking.ErrNotLinked):
		writeError(w, http.StatusBadRequest, "account has no linked identity")
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, payments.ErrInvalidAmount),
		errors.Is(err, payments.ErrMissingPayer),
		errors.Is(err, games.ErrInvalidWager),
		errors.Is(err, games.ErrInvalidPick),
		errors.Is(err, games.ErrInvalidPayout):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.WithError(err).Error("[API] Internal error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
