package dto

// AnalyzeRequest carries text that was recognized on the client.
type AnalyzeRequest struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence" binding:"required,min=0,max=100"`
}
