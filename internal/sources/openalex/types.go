package openalex

// ListResponse is the envelope of an OpenAlex /works listing request.
type ListResponse struct {
	Meta    Meta   `json:"meta"`
	Results []Work `json:"results"`
}

// Meta carries listing metadata.
type Meta struct {
	Count   int `json:"count"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// Work is the subset of an OpenAlex work record the pipeline consumes.
// Abstracts are not returned as text: AbstractInvertedIndex maps each word
// to the token positions at which it occurs.
type Work struct {
	ID                    string           `json:"id"`
	DOI                   string           `json:"doi"`
	Title                 string           `json:"title"`
	DisplayName           string           `json:"display_name"`
	PublicationYear       int              `json:"publication_year"`
	CitedByCount          int              `json:"cited_by_count"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}
