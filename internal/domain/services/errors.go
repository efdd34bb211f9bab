package services

import (
	"errors"

	"github.com/devilmonastery/multioauth/internal/auth/oidc"
	"github.com/devilmonastery/multioauth/internal/pkg/metrics"
)

var (
	// ErrInvalidData is returned when a submitted strategy lacks a required field
	ErrInvalidData = errors.New("invalid-data")

	// ErrInvalidDomain is returned when OpenID discovery fails for a domain
	ErrInvalidDomain = errors.New("invalid-domain")

	// ErrMalformedProfile is returned when a profile payload is not a JSON object
	ErrMalformedProfile = errors.New("malformed profile")

	// ErrInsufficientIdentity is returned when a profile lacks subject id, display name or email
	ErrInsufficientIdentity = errors.New("insufficient identity data")
)

// LoginFailureReason classifies a login error for metrics and logs.
// It never includes identity values.
func LoginFailureReason(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrInsufficientIdentity):
		return metrics.OutcomeInsufficient
	case errors.Is(err, ErrMalformedProfile):
		return metrics.OutcomeMalformed
	case errors.Is(err, oidc.ErrExchangeFailed), errors.Is(err, oidc.ErrProfileFetch):
		return metrics.OutcomeExchange
	default:
		return metrics.OutcomeError
	}
}

// IsClientError reports whether err is caused by the caller's input
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidData) || errors.Is(err, ErrInvalidDomain)
}
