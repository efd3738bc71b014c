package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// createTestDOCX creates a minimal DOCX archive in memory.
func createTestDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	write := func(name, body string) {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`)
	if documentXML != "" {
		write(documentPart, documentXML)
	}
	if coreXML != "" {
		write(corePart, coreXML)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func body(paragraphs string) string {
	return `<?xml version="1.0" encoding="UTF-8"?><w:document ` + wordNS + `><w:body>` + paragraphs + `</w:body></w:document>`
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, n.SupportedMIMETypes())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_InvalidZip(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/x.docx",
		Content: []byte("not a zip"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	_, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/x.docx",
		Content: createTestDOCX(t, "", ""),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, err, errMissingPart)
}

func TestNormalise_CoreProperties(t *testing.T) {
	core := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
  xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/">
  <dc:title>Live Ops Playbook</dc:title>
  <dc:subject>Running seasonal events</dc:subject>
  <dc:creator>Leilani</dc:creator>
  <dcterms:created>2025-02-10T08:30:00Z</dcterms:created>
</cp:coreProperties>`
	doc := body(`<w:p><w:r><w:t>Seasons keep players engaged.</w:t></w:r></w:p>`)

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/docs/liveops.docx",
		Content: createTestDOCX(t, doc, core),
	})
	require.NoError(t, err)
	got := result.Document

	assert.Equal(t, "Live Ops Playbook", got.Title)
	assert.Equal(t, "Running seasonal events", got.Summary)
	assert.Equal(t, "Leilani", got.Metadata["author"])
	assert.Equal(t, time.Date(2025, 2, 10, 8, 30, 0, 0, time.UTC), got.CreatedAt)
	assert.Equal(t, "Seasons keep players engaged.", got.Content)
	assert.Equal(t, domain.SourceTypeDocument, got.SourceType)
}

func TestNormalise_HeadingAndFilenameTitles(t *testing.T) {
	withHeading := body(`<w:p><w:r><w:t>Preface</w:t></w:r></w:p>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Retention</w:t></w:r></w:p>`)

	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/docs/x.docx",
		Content: createTestDOCX(t, withHeading, ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "Retention", result.Document.Title)

	plain := body(`<w:p><w:r><w:t>Body only</w:t></w:r></w:p>`)
	result, err = New().Normalise(context.Background(), &domain.RawDocument{
		URI:     "/docs/quarterly_review.docx",
		Content: createTestDOCX(t, plain, ""),
	})
	require.NoError(t, err)
	assert.Equal(t, "quarterly review", result.Document.Title)
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		name string
		xml  string
		want string
	}{
		{
			name: "paragraphs and runs",
			xml:  `<w:p><w:r><w:t>Hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p><w:p><w:r><w:t>Second</w:t></w:r></w:p>`,
			want: "Hello world\nSecond",
		},
		{
			name: "empty paragraphs skipped",
			xml:  `<w:p/><w:p><w:r><w:t>Only</w:t></w:r></w:p><w:p></w:p>`,
			want: "Only",
		},
		{
			name: "tabs and breaks",
			xml:  `<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`,
			want: "a\tb c",
		},
		{
			name: "table rows",
			xml: `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Tier</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Price</w:t></w:r></w:p></w:tc></w:tr>` +
				`<w:tr><w:tc><w:p><w:r><w:t>Gold</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>9.99</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
				`<w:p><w:r><w:t>After</w:t></w:r></w:p>`,
			want: "Tier\tPrice\nGold\t9.99\nAfter",
		},
		{
			name: "instruction text ignored",
			xml:  `<w:p><w:r><w:instrText>PAGE</w:instrText><w:t>Visible</w:t></w:r></w:p>`,
			want: "Visible",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := parseBody([]byte(body(tt.xml)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBody_Malformed(t *testing.T) {
	_, _, err := parseBody([]byte(`<w:document ` + wordNS + `><w:body><w:p>`))
	assert.Error(t, err)
}
