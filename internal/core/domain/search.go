package domain

import "strings"

// Retrieval defaults.
const (
	// DefaultK is the number of nearest units fetched when a query does not say.
	DefaultK = 3

	// ExcerptLength is the number of characters kept in a source excerpt.
	ExcerptLength = 200

	// ExcerptEllipsis marks a truncated excerpt.
	ExcerptEllipsis = "..."

	// ContextSeparator joins retrieved contents into a context string.
	ContextSeparator = "\n\n"

	// UnknownFilename is reported for units with no recorded source.
	UnknownFilename = "Unknown"
)

// SearchResult is one index hit.
type SearchResult struct {
	// Unit is the matched text unit.
	Unit TextUnit

	// Distance is the squared Euclidean distance to the query vector.
	Distance float32

	// Position is the insertion position of the unit in the index.
	Position int
}

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// K is the number of results to retrieve. Zero means DefaultK.
	K int

	// Filter is an optional expression over unit metadata
	// (variables: source, doc_type, page, document_id, extra).
	Filter string
}

// EffectiveK returns K, or DefaultK when K is not positive.
func (o QueryOptions) EffectiveK() int {
	if o.K <= 0 {
		return DefaultK
	}
	return o.K
}

// Source is a citation for one retrieved unit.
type Source struct {
	// Filename is the originating file, or "Unknown".
	Filename string `json:"filename"`

	// Locator is the page number, or 0 when the unit has none.
	Locator int `json:"page_number"`

	// Excerpt is the possibly truncated unit content.
	Excerpt string `json:"content"`
}

// RetrievalContext is the grounding material for one query.
// An empty Context with no Sources means nothing relevant was found,
// which is a valid result and not an error.
type RetrievalContext struct {
	// Context is the retrieved contents joined by ContextSeparator.
	Context string `json:"context"`

	// Sources lists one citation per retrieved unit, in rank order.
	Sources []Source `json:"sources"`
}

// IsEmpty returns true if no material was retrieved.
func (c *RetrievalContext) IsEmpty() bool {
	return c == nil || (c.Context == "" && len(c.Sources) == 0)
}

// Excerpt truncates content to ExcerptLength characters, appending
// ExcerptEllipsis when anything was cut.
func Excerpt(content string) string {
	runes := []rune(content)
	if len(runes) <= ExcerptLength {
		return content
	}
	return string(runes[:ExcerptLength]) + ExcerptEllipsis
}

// SourceFor builds the citation for a search result.
func SourceFor(r SearchResult) Source {
	filename := r.Unit.Metadata.Source
	if filename == "" {
		filename = UnknownFilename
	}
	return Source{
		Filename: filename,
		Locator:  r.Unit.Metadata.LocatorOrZero(),
		Excerpt:  Excerpt(r.Unit.Content),
	}
}

// BuildContext assembles the retrieval context for ranked results.
func BuildContext(results []SearchResult) *RetrievalContext {
	ctx := &RetrievalContext{Sources: make([]Source, 0, len(results))}
	contents := make([]string, 0, len(results))
	for _, r := range results {
		contents = append(contents, r.Unit.Content)
		ctx.Sources = append(ctx.Sources, SourceFor(r))
	}
	ctx.Context = strings.Join(contents, ContextSeparator)
	return ctx
}
