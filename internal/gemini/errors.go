package gemini

import "fmt"

// TransportError is returned when the single API call fails: a non-2xx
// status, or no response at all (StatusCode 0).
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("gemini API returned status %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("gemini API returned status %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("gemini request failed: %v", e.Err)
	}
	return "gemini request failed"
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
