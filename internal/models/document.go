package models

import "strings"

type SourceType string

const (
	SourceTypeVerifiedContent SourceType = "verified_content"
	SourceTypeWebSearch       SourceType = "web_search"
)

// Metadata keys stamped on documents by the loaders and the web search pipeline.
const (
	MetaSourceType      = "source_type"
	MetaSource          = "source"
	MetaTitle           = "title"
	MetaCourseCode      = "course_code"
	MetaCourseName      = "course_name"
	MetaTerm            = "term"
	MetaContentCategory = "content_category"
	MetaFileName        = "file_name"
	MetaPage            = "page"
	MetaChunkIndex      = "chunk_index"
	MetaURL             = "url"
	MetaEngine          = "engine"
)

// Document is a unit of retrievable text with scalar-only metadata.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

func NewDocument(content string, metadata Metadata) Document {
	if metadata == nil {
		metadata = Metadata{}
	}
	return Document{Content: content, Metadata: metadata}
}

// IsEmpty reports whether the content is blank after trimming.
func (d Document) IsEmpty() bool {
	return strings.TrimSpace(d.Content) == ""
}

// SourceType returns the provenance tag, or "" when the document has none.
func (d Document) SourceType() SourceType {
	s, _ := d.Metadata.String(MetaSourceType)
	return SourceType(s)
}

// RawDocument is what document converters produce: text plus an open metadata
// bag that has not been sanitized yet.
type RawDocument struct {
	Content  string
	Metadata map[string]any
}

// Document converts r, dropping any metadata value that is not a scalar.
func (r RawDocument) Document() Document {
	return NewDocument(r.Content, SanitizeMetadata(r.Metadata))
}
