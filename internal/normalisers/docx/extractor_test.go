package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// createTestDOCX writes a minimal DOCX file to a temp dir and returns its path.
func createTestDOCX(t *testing.T, documentXML string) string {
	t.Helper()

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "test.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))
	return path
}

// documentWith wraps paragraph texts in a document body.
func documentWith(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		if p == "" {
			b.WriteString(`<w:p/>`)
			continue
		}
		fmt.Fprintf(&b, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	b.WriteString(`</w:body></w:document>`)
	return b.String()
}

func TestNew(t *testing.T) {
	extractor := New()
	require.NotNil(t, extractor)
	assert.Equal(t, domain.DocTypeDOCX, extractor.Format())
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.TextExtractor = (*Extractor)(nil)
}

func TestExtract_Paragraphs(t *testing.T) {
	path := createTestDOCX(t, documentWith("First", "", "Second", "Third"))

	segments, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, segments, 4)
	assert.Equal(t, "First", segments[0].Text)
	assert.Equal(t, "", segments[1].Text)
	assert.Equal(t, "Third", segments[3].Text)
	for _, s := range segments {
		assert.Zero(t, s.Locator)
	}
}

func TestExtract_MultipleRuns(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p><w:r><w:tab/><w:t>Indented</w:t></w:r></w:p>
</w:body>
</w:document>`
	path := createTestDOCX(t, docXML)

	segments, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, segments, 2)
	assert.Equal(t, "Hello World", segments[0].Text)
	assert.Equal(t, "\tIndented", segments[1].Text)
}

func TestExtract_HyperlinksAndBreaks(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"
 xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
<w:body>
<w:p><w:r><w:t xml:space="preserve">See </w:t></w:r><w:hyperlink r:id="rId4"><w:r><w:rPr><w:rStyle w:val="Hyperlink"/></w:rPr><w:t>the manual</w:t></w:r></w:hyperlink><w:r><w:t xml:space="preserve"> for details</w:t></w:r></w:p>
<w:p><w:hyperlink r:id="rId5"><w:r><w:t>https://example.com</w:t></w:r></w:hyperlink></w:p>
<w:p><w:r><w:t>line one</w:t><w:br/><w:t>line two</w:t><w:br w:type="page"/></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:delText>gone</w:delText><w:t>kept</w:t></w:r></w:p>
</w:body>
</w:document>`
	path := createTestDOCX(t, docXML)

	segments, err := New().Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, segments, 4)
	assert.Equal(t, "See the manual for details", segments[0].Text)
	assert.Equal(t, "https://example.com", segments[1].Text)
	assert.Equal(t, "line one\nline two", segments[2].Text)
	assert.Equal(t, "kept", segments[3].Text)
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	path := createTestDOCX(t, "")

	_, err := New().Extract(context.Background(), path)
	assert.ErrorIs(t, err, ErrNoDocumentPart)
}

func TestExtract_NotAZip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0600))

	_, err := New().Extract(context.Background(), path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "open archive")
}

func TestExtract_MalformedXML(t *testing.T) {
	path := createTestDOCX(t, "<w:document><w:body><w:p>")

	_, err := New().Extract(context.Background(), path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestExtract_EmptyPath(t *testing.T) {
	_, err := New().Extract(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
