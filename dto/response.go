package dto

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// IDCardResponse is returned by the upload and analyze endpoints.
// On failure Data is nil and Error/Kind describe why.
type IDCardResponse struct {
	Success    bool              `json:"success" yaml:"success"`
	Data       *ExtractedData    `json:"data,omitempty" yaml:"data,omitempty"`
	Validation *ValidationResult `json:"validation,omitempty" yaml:"validation,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	Kind       string            `json:"kind,omitempty" yaml:"kind,omitempty"`
	Retryable  bool              `json:"retryable,omitempty" yaml:"retryable,omitempty"`
	Confidence float64           `json:"confidence" yaml:"confidence"`
	Source     string            `json:"source,omitempty" yaml:"source,omitempty"`
}
