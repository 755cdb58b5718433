// Package sources provides the shared plumbing for abstract-source clients.
//
// Each external source (OpenReview, OpenAlex, Semantic Scholar, the NeurIPS
// proceedings site, the DBLP index) gets its own client package built on the
// shared HTTPClient. All clients follow the same conventions:
//
//   - a lookup that finds no record returns a zero domain.EnrichmentResult
//     and a nil error; "the source has no record" is an expected outcome
//   - network errors, timeouts and 5xx responses surface as errors that
//     unwrap to domain.ErrSourceUnavailable
//   - unparseable payloads surface as domain.ErrMalformedResponse
//   - every request passes through the client's per-source rate limiter
package sources

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/confcloud/confcloud/internal/domain"
)

// maxBodyBytes caps response bodies read into memory.
const maxBodyBytes = 10 << 20

// maxErrorBodyBytes caps error bodies included in error messages.
const maxErrorBodyBytes = 1 << 20

// DecodeJSON decodes a JSON response body into v, capping the bytes read.
// Decode failures are reported as malformed-response errors for the source.
func DecodeJSON(source string, body io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(v); err != nil {
		return domain.NewMalformedResponseError(source, "decoding JSON body", err)
	}
	return nil
}

// APIError reads the (truncated) body of a non-success response and wraps it
// as an ExternalAPIError for the source.
func APIError(source string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return domain.NewExternalAPIError(source, resp.StatusCode, string(body), nil)
}
