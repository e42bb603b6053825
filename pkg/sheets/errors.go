package sheets

import "fmt"

// ValidationError reports malformed caller arguments. No network call is
// made once one of these is raised.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "sheets: " + e.Message
}

// RemoteServiceError reports a non-success status from the spreadsheet API.
type RemoteServiceError struct {
	// StatusCode is the HTTP status of the response. Zero when the request
	// never completed (network failure, timeout).
	StatusCode int

	// Message is the API's error message when one could be extracted,
	// otherwise the raw body.
	Message string

	// Body is the raw response body.
	Body string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *RemoteServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sheets: remote call failed (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("sheets: remote call failed: %s", e.Message)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// MalformedResponseError reports a response body that could not be parsed
// as structured data. It carries the raw text and status so the caller can
// log or surface it without crashing.
type MalformedResponseError struct {
	StatusCode int
	Raw        string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("sheets: unparseable response (status %d): %s", e.StatusCode, e.Raw)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
