package semanticscholar

// PaperResult is the subset of a Semantic Scholar Graph API paper record
// the pipeline consumes.
type PaperResult struct {
	PaperID       string `json:"paperId"`
	Title         string `json:"title"`
	Abstract      string `json:"abstract"`
	CitationCount int    `json:"citationCount"`
}

// ErrorResponse is the error body shape returned by the Graph API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
