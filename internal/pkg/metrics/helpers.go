package metrics

import (
	"errors"
	"strings"
	"time"
)

// Login outcomes
const (
	OutcomeSuccess      = "success"
	OutcomeInsufficient = "insufficient_identity"
	OutcomeMalformed    = "malformed_profile"
	OutcomeExchange     = "exchange_failed"
	OutcomeError        = "error"
)

// RecordStoreOperation records store operation metrics consistently
// repo: repository name (e.g., "strategy", "link", "kv")
// operation: operation name (e.g., "get", "set", "delete", "list")
// duration: time taken for the operation
// err: error from the operation (nil if successful)
func RecordStoreOperation(repo, operation string, duration time.Duration, err error) {
	StoreDuration.WithLabelValues(repo, operation).Observe(float64(duration.Milliseconds()))

	status := "success"
	if err != nil {
		status = "error"
		StoreErrors.WithLabelValues(repo, operation, classifyStoreError(err)).Inc()
	}
	StoreOperations.WithLabelValues(repo, operation, status).Inc()
}

// RecordLogin records one finished login attempt
func RecordLogin(provider, outcome string, duration time.Duration) {
	LoginAttempts.WithLabelValues(provider, outcome).Inc()
	if outcome == OutcomeSuccess {
		LoginDuration.WithLabelValues(provider).Observe(float64(duration.Milliseconds()))
	}
}

// RecordReload records a registry rebuild and the resulting handler count
func RecordReload(size int, err error) {
	if err != nil {
		RegistryReloads.WithLabelValues("error").Inc()
		return
	}
	RegistryReloads.WithLabelValues("success").Inc()
	RegistrySize.Set(float64(size))
}

// classifyStoreError categorizes store errors for metrics
func classifyStoreError(err error) string {
	if err == nil {
		return "none"
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return "timeout"
	}

	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "duplicate") || strings.Contains(errStr, "unique constraint"):
		return "duplicate"
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "no rows") || strings.Contains(errStr, "redis: nil"):
		return "not_found"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "connect"):
		return "connection"
	case strings.Contains(errStr, "foreign key") || strings.Contains(errStr, "fk_"):
		return "foreign_key"
	case strings.Contains(errStr, "constraint"):
		return "constraint"
	default:
		return "other"
	}
}
