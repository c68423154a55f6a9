package poller

import (
	"bytes"
	"sort"
)

// DefaultSuccessKeywords are the substrings that mark a response as healthy
// when no keywords are configured.
var DefaultSuccessKeywords = []string{"ON", "PASS", "ok", "healthy", "success"}

// DefaultStatusCodes are the HTTP status codes accepted as success when none
// are configured.
var DefaultStatusCodes = []int{200, 201, 202, 204}

// Classifier decides whether a received HTTP response is healthy.
//
// A response is healthy only when both hold:
//   - its status code is in the accepted set
//   - its serialized document contains at least one success keyword
//
// Keyword matching is a case-sensitive substring search over the whole
// serialized document, not a check of a particular field. Upstream payloads
// have no common shape, and some report failure inside a 200 response, so the
// loose match is intentional. It also means "ok" matches inside "token".
type Classifier struct {
	keywords    []string
	statusCodes map[int]struct{}
}

// NewClassifier returns a [Classifier] for the given keywords and status
// codes. Empty inputs fall back to [DefaultSuccessKeywords] and
// [DefaultStatusCodes]. Blank keywords are dropped since they would match
// every document.
func NewClassifier(keywords []string, statusCodes []int) Classifier {
	kw := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			kw = append(kw, k)
		}
	}
	if len(kw) == 0 {
		kw = append(kw, DefaultSuccessKeywords...)
	}

	if len(statusCodes) == 0 {
		statusCodes = DefaultStatusCodes
	}
	codes := make(map[int]struct{}, len(statusCodes))
	for _, code := range statusCodes {
		codes[code] = struct{}{}
	}

	return Classifier{keywords: kw, statusCodes: codes}
}

// Classify returns [OutcomeHealthy] or [OutcomeUnhealthy] for a response
// with the given status code and serialized document.
func (c Classifier) Classify(statusCode int, document []byte) Outcome {
	if !c.accepts(statusCode) {
		return OutcomeUnhealthy
	}
	if !containsAnyKeyword(document, c.keywords) {
		return OutcomeUnhealthy
	}
	return OutcomeHealthy
}

func (c Classifier) accepts(statusCode int) bool {
	if c.statusCodes == nil {
		return NewClassifier(nil, nil).accepts(statusCode)
	}
	_, ok := c.statusCodes[statusCode]
	return ok
}

// Keywords returns a copy of the configured success keywords.
func (c Classifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// StatusCodes returns the accepted status codes in ascending order.
func (c Classifier) StatusCodes() []int {
	codes := make([]int, 0, len(c.statusCodes))
	for code := range c.statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// containsAnyKeyword reports whether document contains any of keywords as a
// case-sensitive substring.
func containsAnyKeyword(document []byte, keywords []string) bool {
	if len(keywords) == 0 {
		keywords = DefaultSuccessKeywords
	}
	for _, k := range keywords {
		if bytes.Contains(document, []byte(k)) {
			return true
		}
	}
	return false
}
