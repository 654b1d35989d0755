package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Document is the capability set a type must expose to be indexed. Callers
// with their own post/page representations implement this directly;
// BasicDocument covers the common case.
type Document interface {
	// Title returns the display title. Title matches are weighted higher
	// than body matches at query time.
	Title() string
	// URL returns an opaque identifier for the document, typically a
	// permalink. It is not tokenized for search.
	URL() string
	// Body returns the raw body text, or ok=false when the document has
	// no body (title-only entries).
	Body() (string, bool)
	// Meta returns auxiliary key/value pairs indexed like body text.
	Meta() map[string]string
}

// BasicDocument is the JSON ingestion shape: title and url are required,
// body and meta are optional.
type BasicDocument struct {
	DocTitle string            `json:"title"`
	DocURL   string            `json:"url"`
	DocBody  *string           `json:"body,omitempty"`
	DocMeta  map[string]string `json:"meta,omitempty"`
}

func (d BasicDocument) Title() string { return d.DocTitle }
func (d BasicDocument) URL() string   { return d.DocURL }

func (d BasicDocument) Body() (string, bool) {
	if d.DocBody == nil {
		return "", false
	}
	return *d.DocBody, true
}

func (d BasicDocument) Meta() map[string]string { return d.DocMeta }

// DocumentID uniquely identifies an indexed document. Equality is
// structural over all three fields.
type DocumentID struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Meta  string `json:"meta,omitempty"`
}

// PreparedDocument pairs a document identity with its raw, not yet
// tokenized body text.
type PreparedDocument struct {
	ID   DocumentID
	Body *string
}

// ParseError reports a malformed document in the ingestion payload,
// including its zero-based position in the JSON array when known.
type ParseError struct {
	Position int
	Err      error
}

func (e *ParseError) Error() string {
	if e.Position < 0 {
		return fmt.Sprintf("parse documents: %v", e.Err)
	}
	return fmt.Sprintf("parse document at index %d: %v", e.Position, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseDocuments decodes the JSON array ingestion format. Each element must
// carry a title and url; body and meta are optional. Failures surface as a
// ParseError carrying the offending element position.
func ParseDocuments(data []byte) ([]BasicDocument, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Position: -1, Err: err}
	}

	docs := make([]BasicDocument, 0, len(raw))
	for i, element := range raw {
		var shadow struct {
			Title *string           `json:"title"`
			URL   *string           `json:"url"`
			Body  *string           `json:"body"`
			Meta  map[string]string `json:"meta"`
		}
		decoder := json.NewDecoder(bytes.NewReader(element))
		if err := decoder.Decode(&shadow); err != nil {
			return nil, &ParseError{Position: i, Err: err}
		}
		if shadow.Title == nil {
			return nil, &ParseError{Position: i, Err: fmt.Errorf("missing required field %q", "title")}
		}
		if shadow.URL == nil {
			return nil, &ParseError{Position: i, Err: fmt.Errorf("missing required field %q", "url")}
		}
		docs = append(docs, BasicDocument{
			DocTitle: *shadow.Title,
			DocURL:   *shadow.URL,
			DocBody:  shadow.Body,
			DocMeta:  shadow.Meta,
		})
	}
	return docs, nil
}

// Prepare maps documents onto identities plus raw bodies. Input order is
// preserved and duplicate identities are kept as distinct entries rather
// than silently merged.
func Prepare(docs []Document) []PreparedDocument {
	prepared := make([]PreparedDocument, 0, len(docs))
	for _, doc := range docs {
		id := DocumentID{
			Title: doc.Title(),
			URL:   doc.URL(),
			Meta:  encodeMeta(doc.Meta()),
		}
		var body *string
		if text, ok := doc.Body(); ok {
			body = &text
		}
		prepared = append(prepared, PreparedDocument{ID: id, Body: body})
	}
	return prepared
}

// encodeMeta serializes a metadata map into a deterministic key-sorted JSON
// object, or the empty string for an empty map. Determinism matters because
// the result becomes part of the document identity.
func encodeMeta(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeJSONString(&buf, k)
		buf.WriteByte(':')
		writeJSONString(&buf, meta[k])
	}
	buf.WriteByte('}')
	return buf.String()
}

func writeJSONString(buf *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s)
	buf.Write(encoded)
}
