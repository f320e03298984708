package assistant

import "errors"

// Sentinel errors surfaced by the gateway. Validation and quota errors are
// resolved before any external side effect; provider errors are recorded as
// failed interactions first and then surfaced.
var (
	ErrQuotaExceeded       = errors.New("assistant: daily token quota exceeded")
	ErrProviderUnavailable = errors.New("assistant: provider call failed")
	ErrEmptyPrompt         = errors.New("assistant: prompt is empty")
	ErrPromptTooLong       = errors.New("assistant: prompt exceeds maximum length")
	ErrUnknownMode         = errors.New("assistant: unknown mode")
)
