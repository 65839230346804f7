package domain

// IngestRequest describes one file to ingest.
type IngestRequest struct {
	// Path is the location of the file on local disk.
	Path string

	// Filename is the name recorded as the unit source. Defaults to the base of Path.
	Filename string

	// FileType is the declared format ("pdf", "docx"). Defaults to the extension of Filename.
	FileType string

	// DocumentID is an optional caller-supplied identifier. A UUID is generated when empty.
	DocumentID string
}

// IngestResult reports the outcome of a successful ingest.
type IngestResult struct {
	// Status is "success" for a completed ingest.
	Status string `json:"status"`

	// Message is a human-readable summary.
	Message string `json:"message"`

	// UnitsProcessed is the number of text units added to the index.
	UnitsProcessed int `json:"documents_processed"`

	// DocumentID tags every unit of the ingested file.
	DocumentID string `json:"document_id"`

	// Warnings lists non-fatal problems, such as a failed document row write.
	Warnings []string `json:"warnings,omitempty"`
}

// IndexStats summarises the state of a vector index.
type IndexStats struct {
	// Entries is the number of stored units, including tombstoned ones.
	Entries int `json:"entries"`

	// Live is the number of searchable units.
	Live int `json:"live"`

	// Deleted is the number of tombstoned units awaiting compaction.
	Deleted int `json:"deleted"`

	// Dimension is the vector length, or 0 for an index that has never been written.
	Dimension int `json:"dimension"`

	// Path is the directory the index persists to.
	Path string `json:"path,omitempty"`

	// Compression is the codec used for the vector file.
	Compression string `json:"compression"`
}
