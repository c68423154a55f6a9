package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/jpalmerr/healthboard/internal/registry"
)

// Prober performs bounded health checks against single endpoints.
//
// Probe never returns an error and never panics on upstream input: timeouts
// and transport failures come back as outcomes on the [Result].
type Prober struct {
	client     *Client
	classifier Classifier
	now        func() time.Time
}

// NewProber returns a [Prober] issuing requests through client. A nil
// client gets a fresh [NewClient].
func NewProber(client *Client, classifier Classifier) *Prober {
	if client == nil {
		client = NewClient()
	}
	return &Prober{
		client:     client,
		classifier: classifier,
		now:        time.Now,
	}
}

// Classifier returns the classifier applied to received responses.
func (p *Prober) Classifier() Classifier {
	return p.classifier
}

// Close releases idle connections held by the underlying client.
func (p *Prober) Close() {
	p.client.Close()
}

// Probe issues one GET against ep.URL bounded by ep.Timeout.
func (p *Prober) Probe(ctx context.Context, ep registry.Endpoint) Result {
	resp := p.client.Fetch(ctx, ep.URL, ep.Timeout)

	result := Result{
		EndpointID:  ep.ID,
		DisplayName: ep.DisplayName,
		URL:         ep.URL,
		StatusCode:  resp.StatusCode,
		Latency:     resp.Latency,
		ObservedAt:  p.now(),
	}

	switch {
	case resp.TimedOut:
		result.Outcome = OutcomeTimeout
		result.Err = resp.Error
	case resp.Error != nil:
		result.Outcome = OutcomeTransportError
		result.Err = resp.Error
		result.Body = []byte(resp.Error.Error())
	default:
		result.Body = Document(resp.Header.Get("Content-Type"), resp.Body)
		result.Outcome = p.classifier.Classify(resp.StatusCode, result.Body)
	}

	return result
}

// Document turns a response body into the serialized document that keyword
// classification runs over.
//
// Bodies declared as JSON are parsed and re-serialized compactly. Anything
// else, including JSON that fails to parse, is wrapped as {"response": text}.
func Document(contentType string, body []byte) []byte {
	if isJSONContentType(contentType) {
		if doc, ok := compactJSON(body); ok {
			return doc
		}
	}
	doc, err := marshal(map[string]string{"response": string(body)})
	if err != nil {
		return body
	}
	return doc
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// compactJSON decodes body as exactly one JSON value and re-encodes it.
// Numbers keep their original text.
func compactJSON(body []byte) ([]byte, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, false
	}

	doc, err := marshal(v)
	if err != nil {
		return nil, false
	}
	return doc, true
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
