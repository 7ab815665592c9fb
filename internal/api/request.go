package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strconv"
	"strings"

	"document-hydrator/internal/hydrator"

	"github.com/goccy/go-yaml"
)

type bodyFormat int

const (
	formatJSON bodyFormat = iota
	formatYAML
)

func (f bodyFormat) contentType() string {
	if f == formatYAML {
		return "application/yaml"
	}
	return "application/json"
}

// formatFromContentType picks the body codec. Anything that is not YAML is treated as JSON.
func formatFromContentType(header string) bodyFormat {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return formatJSON
	}
	switch strings.ToLower(mediaType) {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return formatYAML
	default:
		return formatJSON
	}
}

// HydrateRequest is the body of POST /hydrate. Exactly one of Documents or Document is set.
type HydrateRequest struct {
	Source    string              `json:"source" yaml:"source"`
	Paths     []string            `json:"paths" yaml:"paths"`
	Documents []hydrator.Document `json:"documents,omitempty" yaml:"documents,omitempty"`
	Document  hydrator.Document   `json:"document,omitempty" yaml:"document,omitempty"`
}

type errorResponse struct {
	Error string `json:"error" yaml:"error"`
}

var errInvalidRequest = errors.New("invalid request")

func decodeRequest(body []byte, format bodyFormat) (*HydrateRequest, error) {
	var req HydrateRequest
	switch format {
	case formatYAML:
		if err := yaml.UnmarshalWithOptions(body, &req, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
		}
		if dec.More() {
			return nil, fmt.Errorf("%w: trailing data after request body", errInvalidRequest)
		}
	}

	if err := req.validate(); err != nil {
		return nil, err
	}
	for i, doc := range req.Documents {
		req.Documents[i] = normalizeDocument(doc)
	}
	req.Document = normalizeDocument(req.Document)
	return &req, nil
}

func (r *HydrateRequest) validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return fmt.Errorf("%w: source is required", errInvalidRequest)
	}
	if len(r.Paths) == 0 {
		return fmt.Errorf("%w: at least one path is required", errInvalidRequest)
	}
	for i, path := range r.Paths {
		if path == "" {
			return fmt.Errorf("%w: paths[%d] is empty", errInvalidRequest, i)
		}
	}
	if r.Document != nil && r.Documents != nil {
		return fmt.Errorf("%w: set either document or documents, not both", errInvalidRequest)
	}
	if r.Document == nil && r.Documents == nil {
		return fmt.Errorf("%w: document or documents is required", errInvalidRequest)
	}
	return nil
}

func (r *HydrateRequest) documentCount() int {
	if r.Document != nil {
		return 1
	}
	return len(r.Documents)
}

// normalizeDocument turns decoder-specific scalars into plain Go values so that
// identifiers compare equal whichever body format carried them.
func normalizeDocument(doc hydrator.Document) hydrator.Document {
	if doc == nil {
		return nil
	}
	for key, value := range doc {
		doc[key] = normalizeValue(value)
	}
	return doc
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u
		}
		// Integer literals outside the 64-bit range stay text so they are never rounded.
		if strings.ContainsAny(v.String(), ".eE") {
			if f, err := v.Float64(); err == nil {
				return f
			}
		}
		return v.String()
	case uint64:
		if v <= 1<<63-1 {
			return int64(v)
		}
		return v
	case int:
		return int64(v)
	case map[string]any:
		return normalizeDocument(v)
	case map[any]any:
		doc := make(hydrator.Document, len(v))
		for key, item := range v {
			doc[fmt.Sprint(key)] = normalizeValue(item)
		}
		return doc
	case []any:
		for i, item := range v {
			v[i] = normalizeValue(item)
		}
		return v
	default:
		return value
	}
}

func encodeBody(format bodyFormat, value any) ([]byte, error) {
	if format == formatYAML {
		return yaml.Marshal(value)
	}
	return json.Marshal(value)
}
