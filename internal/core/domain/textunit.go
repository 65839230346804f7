package domain

import "strings"

// DocType identifies the kind of file a text unit was extracted from.
type DocType string

// Known document types.
const (
	// DocTypePDF is a unit extracted from one page of a PDF.
	DocTypePDF DocType = "pdf"

	// DocTypeDOCX is a unit built from a group of Word paragraphs.
	DocTypeDOCX DocType = "docx"

	// DocTypeSystem is a built-in seed unit that did not come from a file.
	DocTypeSystem DocType = "system"
)

// IsValid returns true if the document type is recognised.
func (t DocType) IsValid() bool {
	switch t {
	case DocTypePDF, DocTypeDOCX, DocTypeSystem:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t DocType) String() string {
	return string(t)
}

// ParseFileType normalises a file type or extension ("PDF", ".docx") to a DocType.
// Returns ErrUnsupportedFormat for anything that is not an ingestible file format.
func ParseFileType(fileType string) (DocType, error) {
	t := DocType(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(fileType), ".")))
	switch t {
	case DocTypePDF, DocTypeDOCX:
		return t, nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// UnitMetadata records where a text unit came from.
type UnitMetadata struct {
	// Source is the originating file name, or "system" for seed units.
	Source string `json:"source"`

	// Locator is the 1-based page number for PDF units. Nil when the
	// format has no natural location (Word paragraph groups).
	Locator *int `json:"page,omitempty"`

	// DocType is the kind of file the unit was extracted from.
	DocType DocType `json:"type"`

	// DocumentID is the identifier of the owning document record.
	// Empty for seed units.
	DocumentID string `json:"document_id,omitempty"`

	// Extra holds free-form annotations (seed categories and the like).
	Extra map[string]string `json:"extra,omitempty"`
}

// TextUnit is a bounded span of document text with provenance metadata.
// It is the unit of both embedding and retrieval and is never modified
// once it has been inserted into an index.
type TextUnit struct {
	// Content is the text that gets embedded.
	Content string `json:"content"`

	// Metadata is the provenance of the content.
	Metadata UnitMetadata `json:"metadata"`
}

// PageLocator returns a pointer to n for use as a UnitMetadata.Locator.
func PageLocator(n int) *int {
	return &n
}

// LocatorOrZero returns the locator value, or 0 when none is set.
func (m UnitMetadata) LocatorOrZero() int {
	if m.Locator == nil {
		return 0
	}
	return *m.Locator
}
