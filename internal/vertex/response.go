package vertex

import (
	"encoding/json"
	"strings"
)

// maxCoercedBytes bounds the last-resort string coercion.
const maxCoercedBytes = 10000

// Response is a raw model reply. Its shape is not guaranteed, so callers
// read it through Text rather than decoding it themselves.
type Response struct {
	StatusCode int
	Body       []byte
}

// NewResponse wraps a reply body, mostly for tests and alternative clients.
func NewResponse(body string) *Response {
	return &Response{StatusCode: 200, Body: []byte(body)}
}

// Extractor pulls text out of a reply. It reports false when it finds none.
type Extractor func(r *Response) (string, bool)

// extractors are tried in order by Text. Each decodes only the fields it
// reads, so a malformed field never hides another strategy's text.
var extractors = [...]Extractor{
	DirectText,
	CandidateText,
	CoercedText,
}

// Text returns the first non-empty result of the extraction strategies
// (DirectText, CandidateText, CoercedText), trimmed. It reports false when
// no strategy finds text.
func (r *Response) Text() (string, bool) {
	if r == nil {
		return "", false
	}
	for _, extract := range extractors {
		if s, ok := extract(r); ok {
			return s, true
		}
	}
	return "", false
}

// FinishReasons lists the finish reasons of candidates that carried no
// text, such as SAFETY for a blocked reply.
func (r *Response) FinishReasons() []string {
	if r == nil {
		return nil
	}
	var reply struct {
		Candidates []candidate `json:"candidates"`
	}
	if err := json.Unmarshal(r.Body, &reply); err != nil {
		return nil
	}

	var reasons []string
	for _, c := range reply.Candidates {
		if _, ok := nonEmpty(c.text()); !ok && c.FinishReason != "" {
			reasons = append(reasons, c.FinishReason)
		}
	}
	return reasons
}

// DirectText reads a top-level "text" field when it is a string.
func DirectText(r *Response) (string, bool) {
	var reply struct {
		Text json.RawMessage `json:"text"`
	}
	if err := json.Unmarshal(r.Body, &reply); err != nil || reply.Text == nil {
		return "", false
	}
	var s string
	if err := json.Unmarshal(reply.Text, &s); err != nil {
		return "", false
	}
	return nonEmpty(s)
}

// CandidateText joins the text parts of the first candidate that has any.
func CandidateText(r *Response) (string, bool) {
	var reply struct {
		Candidates []candidate `json:"candidates"`
	}
	if err := json.Unmarshal(r.Body, &reply); err != nil {
		return "", false
	}
	for _, c := range reply.Candidates {
		if s, ok := nonEmpty(c.text()); ok {
			return s, true
		}
	}
	return "", false
}

// CoercedText treats a short body as plain text. A JSON string literal is
// unquoted; any other JSON value yields nothing, since its text would be
// markup rather than model output.
func CoercedText(r *Response) (string, bool) {
	if len(r.Body) == 0 || len(r.Body) >= maxCoercedBytes {
		return "", false
	}

	var s string
	if err := json.Unmarshal(r.Body, &s); err == nil {
		return nonEmpty(s)
	}
	if json.Valid(r.Body) {
		return "", false
	}
	return nonEmpty(string(r.Body))
}

func nonEmpty(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}
