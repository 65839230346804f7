// Package normalisers provides text extractors for the file formats ragcore
// can ingest. Each extractor knows how to pull raw text segments out of one
// format: pages for PDF, paragraphs for Word documents.
//
// Extractors are registered with the extractor registry at startup and are
// driven by the chunker, which turns segments into text units.
package normalisers
