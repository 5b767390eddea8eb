package payments

import "fmt"

// ProviderError is an error the provider's API reported itself. It is passed
// through to the response layer verbatim so provider diagnostics survive.
type ProviderError struct {
	StatusCode int
	Name       string
	Message    string
	DebugID    string
}

func (e *ProviderError) Error() string {
	if e.DebugID != "" {
		return fmt.Sprintf("provider error %d %s: %s (debug_id %s)", e.StatusCode, e.Name, e.Message, e.DebugID)
	}
	return fmt.Sprintf("provider error %d %s: %s", e.StatusCode, e.Name, e.Message)
}
