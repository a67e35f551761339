package analysis

import "fmt"

// Request is the body of POST /analyze
type Request struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// Verdict is the service's classification of one url/filename pair
type Verdict struct {
	IsMalicious bool `json:"is_malicious"`
	// Filename is the service-canonical name, used by the safe-copy replay
	Filename string `json:"filename,omitempty"`
	Message  string `json:"message,omitempty"`
}

// errorBody is what the service may send with a non-2xx status
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// StatusError is a non-2xx response from the analysis service
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service status %d: %s", e.Status, e.Message)
}

// HTTPStatus returns the upstream status code
func (e *StatusError) HTTPStatus() int { return e.Status }
