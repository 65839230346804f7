// Package docx extracts paragraphs from Word (.docx) documents.
package docx

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

const documentPart = "word/document.xml"

// ErrNoDocumentPart indicates the archive has no word/document.xml.
var ErrNoDocumentPart = errors.New("docx: word/document.xml not found")

// Extractor reads the body paragraphs of a Word document.
type Extractor struct{}

// New creates a new DOCX extractor.
func New() *Extractor {
	return &Extractor{}
}

// Format returns the document type this extractor reads.
func (e *Extractor) Format() domain.DocType {
	return domain.DocTypeDOCX
}

// Extract returns one segment per body paragraph in document order.
// Empty paragraphs are returned too; grouping decides what to keep.
func (e *Extractor) Extract(_ context.Context, filePath string) ([]driven.Segment, error) {
	if filePath == "" {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("docx: open archive: %w", err)
	}
	defer reader.Close()

	content, err := readDocumentPart(&reader.Reader)
	if err != nil {
		return nil, err
	}

	paragraphs, err := parseParagraphs(content)
	if err != nil {
		return nil, err
	}

	segments := make([]driven.Segment, 0, len(paragraphs))
	for _, p := range paragraphs {
		segments = append(segments, driven.Segment{Text: p})
	}
	return segments, nil
}

// readDocumentPart returns the raw bytes of word/document.xml.
func readDocumentPart(reader *zip.Reader) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != documentPart {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("docx: open %s: %w", documentPart, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("docx: read %s: %w", documentPart, err)
		}
		return content, nil
	}
	return nil, ErrNoDocumentPart
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

// paragraph holds the visible text of a w:p element: runs and the runs of
// hyperlinks, in document order.
type paragraph struct {
	Text string
}

func (p *paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var b strings.Builder
	if err := collectText(d, &b, start.Name.Local); err != nil {
		return err
	}
	p.Text = b.String()
	return nil
}

type textElement struct {
	Content string `xml:",chardata"`
}

// collectText consumes tokens up to the end of the current element, the
// local name of which is parent.
func collectText(d *xml.Decoder, b *strings.Builder, parent string) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := collectElement(d, b, parent, el); err != nil {
				return err
			}
		}
	}
}

func collectElement(d *xml.Decoder, b *strings.Builder, parent string, el xml.StartElement) error {
	name := el.Name.Local
	switch {
	case name == "hyperlink" && parent == "p",
		name == "r" && (parent == "p" || parent == "hyperlink"):
		return collectText(d, b, name)
	case name == "t" && parent == "r":
		var t textElement
		if err := d.DecodeElement(&t, &el); err != nil {
			return err
		}
		b.WriteString(t.Content)
		return nil
	case name == "tab" && parent == "r":
		b.WriteString("\t")
	case name == "cr" && parent == "r":
		b.WriteString("\n")
	case name == "br" && parent == "r":
		// Page and column breaks carry no text.
		if kind := attr(el, "type"); kind == "" || kind == "textWrapping" {
			b.WriteString("\n")
		}
	}
	return d.Skip()
}

func attr(el xml.StartElement, local string) string {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// parseParagraphs returns the text of every body paragraph.
func parseParagraphs(content []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("docx: parse %s: %w", documentPart, err)
	}

	paragraphs := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		paragraphs = append(paragraphs, para.Text)
	}
	return paragraphs, nil
}
