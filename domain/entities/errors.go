package entities

import "fmt"

// ConfigError reports an invalid or ambiguous configuration mutation. It is
// surfaced synchronously to the issuing command and never applied partially.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// ProviderErrorKind classifies translation provider failures.
type ProviderErrorKind string

const (
	ProviderRateLimited         ProviderErrorKind = "rate_limited"
	ProviderAuthFailed          ProviderErrorKind = "auth_failed"
	ProviderUnsupportedLanguage ProviderErrorKind = "unsupported_language"
	ProviderTransientNetwork    ProviderErrorKind = "transient_network"
)

// ProviderError is returned by translation providers. Only rate-limit and
// transient-network failures are retried.
type ProviderError struct {
	Provider Provider
	Kind     ProviderErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth another attempt.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ProviderRateLimited || e.Kind == ProviderTransientNetwork
}

// NewProviderError builds a ProviderError wrapping err.
func NewProviderError(provider Provider, kind ProviderErrorKind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// DeliveryErrorKind classifies platform delivery failures.
type DeliveryErrorKind string

const (
	DeliveryMissingPermission DeliveryErrorKind = "missing_permission"
	DeliveryTargetMissing     DeliveryErrorKind = "target_missing"
	DeliveryRateLimited       DeliveryErrorKind = "rate_limited"
	// DeliveryRejected covers client errors the platform will keep
	// rejecting; retrying them only burns the backoff schedule.
	DeliveryRejected  DeliveryErrorKind = "rejected"
	DeliveryTransient DeliveryErrorKind = "transient"
)

// DeliveryError is returned when posting, editing, or deleting a mirrored
// message fails. One failing leg never affects the others.
type DeliveryError struct {
	ChannelID string
	Kind      DeliveryErrorKind
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery to <#%s> failed (%s): %v", e.ChannelID, e.Kind, e.Err)
	}
	return fmt.Sprintf("delivery to <#%s> failed (%s)", e.ChannelID, e.Kind)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the delivery failure is worth another attempt.
func (e *DeliveryError) Retryable() bool {
	return e.Kind == DeliveryRateLimited || e.Kind == DeliveryTransient
}

// NewDeliveryError builds a DeliveryError for a target channel.
func NewDeliveryError(channelID string, kind DeliveryErrorKind, err error) *DeliveryError {
	return &DeliveryError{ChannelID: channelID, Kind: kind, Err: err}
}
