package domain

import "time"

// DocumentStatus is the processing state of an ingested file.
type DocumentStatus string

// Document statuses.
const (
	// DocumentStatusProcessed means every unit of the file is searchable.
	DocumentStatusProcessed DocumentStatus = "processed"

	// DocumentStatusDeleted means the document was removed and its units tombstoned.
	DocumentStatusDeleted DocumentStatus = "deleted"
)

// Document is the record of one ingested file.
type Document struct {
	// ID is the unique identifier (UUID) shared by every unit of the file.
	ID string `json:"id"`

	// Filename is the original name of the uploaded file.
	Filename string `json:"filename"`

	// FileType is the lower-case extension without a dot ("pdf", "docx").
	FileType string `json:"file_type"`

	// TotalPages is the number of text units produced from the file.
	TotalPages int `json:"total_pages"`

	// Status is the processing state.
	Status DocumentStatus `json:"status"`

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time `json:"created_at"`
}

// Page is the stored text of one unit of an ingested document.
type Page struct {
	// ID is the unique identifier of the page row.
	ID string `json:"id"`

	// DocumentID references the owning document.
	DocumentID string `json:"document_id"`

	// PageNumber is the 1-based position of the unit within the document.
	PageNumber int `json:"page_number"`

	// Content is the unit text.
	Content string `json:"content"`

	// Metadata is the unit provenance at the time of ingest.
	Metadata UnitMetadata `json:"metadata"`
}
