package pdpj

import "fmt"

// MsgNumeroObrigatorio is the user-facing message for a missing process number.
const MsgNumeroObrigatorio = "Número do processo é obrigatório"

// ValidationError reports a missing or invalid input. It never reaches the network.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthenticationError reports a failed password-grant login against the SSO.
// Status is the token endpoint's HTTP status, or 0 when no response was received.
type AuthenticationError struct {
	Status int
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("pdpj auth: login failed with status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("pdpj auth: login failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// UpstreamError reports a non-2xx or unreadable response from the process API.
type UpstreamError struct {
	Status int
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdpj: invalid response (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("pdpj: status %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
