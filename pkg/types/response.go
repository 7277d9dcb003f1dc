package types

// Envelope is the uniform response body for every endpoint, success and
// failure alike.
type Envelope struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIErrorDetails carries optional structured context for client-fixable
// errors, nested under Data on failure responses.
type APIErrorDetails struct {
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
