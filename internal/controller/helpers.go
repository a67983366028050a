package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/tribalscale/moneytransfer/internal/domain/errors"
)

// Account ids are alphanumeric plus whitespace, max length enforced by the
// struct tag.
var accountIDPattern = regexp.MustCompile(`^[a-zA-Z0-9\s]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// iso4217 covers the currency registry; account_id covers the id shape.
	_ = v.RegisterValidation("account_id", func(fl validator.FieldLevel) bool {
		return accountIDPattern.MatchString(fl.Field().String())
	})
	return v
}

const (
	msgNotFound         = "Not found"
	msgApplicationError = "Application error while trying to access to the provided operation"
	msgValidationError  = "Error while validating input parameters"
	msgGenericError     = "Generic error while trying to access to the provided operation"
)

type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{domainErrors.ErrAccountNotFound, http.StatusNotFound, msgNotFound},
	{domainErrors.ErrInsufficientFunds, http.StatusBadRequest, msgApplicationError},
	{domainErrors.ErrSameAccount, http.StatusBadRequest, msgValidationError},
	{domainErrors.ErrInvalidCurrency, http.StatusBadRequest, msgValidationError},
	{domainErrors.ErrOptimisticLockFailed, http.StatusConflict, msgApplicationError},
	{domainErrors.ErrStoreUnavailable, http.StatusServiceUnavailable, msgGenericError},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError translates a failure into a protocol response. Only the generic,
// kind-specific message and the numeric code reach the caller; the underlying
// error text stays in the logs.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		log.Warn().Err(err).Msg("request failed input validation")
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Code: http.StatusBadRequest, Message: msgValidationError})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			log.Error().Err(err).Int("status", m.status).Msg("request failed")
			writeJSON(w, m.status, ErrorResponse{Code: m.status, Message: m.message})
			return
		}
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	writeJSON(w, http.StatusInternalServerError,
		ErrorResponse{Code: http.StatusInternalServerError, Message: msgGenericError})
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}

// validateAccountID checks a path parameter against the id shape rules the
// body fields get from their struct tags.
func validateAccountID(id string) error {
	if id == "" {
		return domainErrors.NewValidationError("id", "cannot be empty")
	}
	if len(id) > 100 {
		return domainErrors.NewValidationError("id", "exceeds maximum length of 100")
	}
	if !accountIDPattern.MatchString(id) {
		return domainErrors.NewValidationError("id", "must be alphanumeric")
	}
	return nil
}
