package types

// SuccessEnvelope wraps every successful terminal response. Data carries the
// operation result: a cart view, a printed ticket with its KOT layout, an
// order listing, and so on.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a pkg/errors code. Details is populated only
// for codes whose metadata allows it, e.g. the offending cart key on
// INCONSISTENT_KEY or per-field messages on VALIDATION_ERROR.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every failed terminal response.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
