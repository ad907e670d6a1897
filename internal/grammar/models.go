package grammar

// Request is the body posted to the correction endpoint.
type Request struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Correction is one suggested replacement. Indices are offsets into the
// submitted text.
type Correction struct {
	Original    string  `json:"original"`
	Corrected   string  `json:"corrected"`
	StartIndex  int     `json:"startIndex"`
	EndIndex    int     `json:"endIndex"`
	ErrorType   string  `json:"errorType"`
	Description *string `json:"description,omitempty"`
}

type CorrectionResult struct {
	CorrectedText string       `json:"corrected_text"`
	Corrections   []Correction `json:"corrections,omitempty"`
	Success       bool         `json:"success"`
	Message       *string      `json:"message,omitempty"`
}

// ErrorResponse is the body of a non-2xx reply.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Message *string `json:"message"`
	Code    *int    `json:"code"`
}
