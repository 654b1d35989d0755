package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Schema maps arbitrary JSON post objects onto indexable documents. The
// first indexed field doubles as the title; remaining indexed fields are
// concatenated into the body. Metadata fields are concatenated into the
// identity's meta text.
type Schema struct {
	IndexedFields  []string `json:"indexed_fields" toml:"indexed_fields" yaml:"indexed_fields"`
	MetadataFields []string `json:"metadata_fields" toml:"metadata_fields" yaml:"metadata_fields"`
	URLField       string   `json:"url_field" toml:"url_field" yaml:"url_field"`
}

// DefaultSchema indexes the conventional title/body shape.
func DefaultSchema() Schema {
	return Schema{
		IndexedFields: []string{"title", "body"},
		URLField:      "url",
	}
}

// Validate checks the schema eagerly, before any build starts.
func (s Schema) Validate() error {
	if len(s.IndexedFields) == 0 {
		return errors.New("schema: at least one indexed field is required")
	}
	if strings.TrimSpace(s.URLField) == "" {
		return errors.New("schema: url field is required")
	}
	for _, field := range append(append([]string{}, s.IndexedFields...), s.MetadataFields...) {
		if strings.TrimSpace(field) == "" {
			return errors.New("schema: field names cannot be empty")
		}
	}
	return nil
}

// SchemaDocument is a schema-mapped view over one raw post object. It
// implements Document.
type SchemaDocument struct {
	title string
	url   string
	body  *string
	meta  map[string]string
}

func (d SchemaDocument) Title() string { return d.title }
func (d SchemaDocument) URL() string   { return d.url }

func (d SchemaDocument) Body() (string, bool) {
	if d.body == nil {
		return "", false
	}
	return *d.body, true
}

func (d SchemaDocument) Meta() map[string]string { return d.meta }

// Apply maps raw post objects onto documents according to the schema.
// Missing fields are skipped; a missing URL field yields an empty URL.
func (s Schema) Apply(posts []map[string]any) []Document {
	docs := make([]Document, 0, len(posts))
	for _, post := range posts {
		docs = append(docs, s.applyOne(post))
	}
	return docs
}

func (s Schema) applyOne(post map[string]any) SchemaDocument {
	url := ""
	if value, ok := post[s.URLField]; ok {
		url = flattenValue(value)
	}

	title := url
	if len(s.IndexedFields) > 0 {
		if value, ok := post[s.IndexedFields[0]]; ok {
			title = flattenValue(value)
		}
	}

	var bodyParts []string
	for _, field := range s.IndexedFields {
		value, ok := post[field]
		if !ok {
			continue
		}
		if text := flattenValue(value); text != "" {
			bodyParts = append(bodyParts, text)
		}
	}

	meta := make(map[string]string)
	for _, field := range s.MetadataFields {
		value, ok := post[field]
		if !ok {
			continue
		}
		if text := flattenValue(value); text != "" {
			meta[field] = text
		}
	}
	if len(meta) == 0 {
		meta = nil
	}

	var body *string
	if len(bodyParts) > 0 {
		joined := strings.Join(bodyParts, " ")
		body = &joined
	}

	return SchemaDocument{title: title, url: url, body: body, meta: meta}
}

// flattenValue renders a JSON value as searchable text: strings verbatim,
// numbers and bools stringified, arrays of strings joined with spaces.
// Objects and null flatten to the empty string.
func flattenValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case []string:
		return strings.Join(v, " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// ParsePosts decodes a JSON array of arbitrary post objects for
// schema-driven indexing.
func ParsePosts(data []byte) ([]map[string]any, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Position: -1, Err: err}
	}

	posts := make([]map[string]any, 0, len(raw))
	for i, element := range raw {
		var post map[string]any
		if err := json.Unmarshal(element, &post); err != nil {
			return nil, &ParseError{Position: i, Err: fmt.Errorf("expected object: %w", err)}
		}
		posts = append(posts, post)
	}
	return posts, nil
}
