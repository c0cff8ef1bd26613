package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTypeFromExt(t *testing.T) {
	assert.Equal(t, FileTypePDF, FileTypeFromExt("pdf"))
	assert.Equal(t, FileTypePDF, FileTypeFromExt("PDF"))
	assert.Equal(t, FileTypeMD, FileTypeFromExt("markdown"))
	assert.Equal(t, FileTypeHTML, FileTypeFromExt("htm"))
	assert.Equal(t, FileTypeTXT, FileTypeFromExt("txt"))
	assert.Equal(t, FileTypeUnknown, FileTypeFromExt("docx"))
}

func TestRegistryDispatchesByExtension(t *testing.T) {
	reg := DefaultRegistry()

	p, ok := reg.GetParserForPath("/docs/monograph.txt")
	require.True(t, ok)
	assert.Equal(t, FileTypeTXT, p.FileType())

	_, ok = reg.GetParserForPath("/docs/monograph.xlsx")
	assert.False(t, ok)
}

func TestRegistryParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("Vitamin C Monograph\nbody text"), 0o644))

	doc, err := DefaultRegistry().ParseFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "Vitamin C Monograph", doc.Title)
	assert.Contains(t, doc.Content, "body text")
}

func TestRegistryUnknownExtension(t *testing.T) {
	_, err := DefaultRegistry().ParseFile(context.Background(), "spec.xlsx")
	assert.Error(t, err)
}

func TestTxtParserReader(t *testing.T) {
	doc, err := NewTxtParser().Parse(context.Background(), strings.NewReader("Zinc Citrate\ndetails"))
	require.NoError(t, err)

	assert.Equal(t, "Zinc Citrate", doc.Title)
	assert.Equal(t, "Zinc Citrate\ndetails", doc.Content)
}

func TestMarkdownParserStripsFormatting(t *testing.T) {
	md := `---
title: "Vitamin C Monograph"
source: compendium
---

# Vitamin C

This ingredient is **well studied**. See [the index](https://example.com/idx).
`
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader(md))
	require.NoError(t, err)

	assert.Equal(t, "Vitamin C Monograph", doc.Title)
	assert.NotContains(t, doc.Content, "---")
	assert.NotContains(t, doc.Content, "**")
	assert.NotContains(t, doc.Content, "](")
	assert.Contains(t, doc.Content, "well studied")
	assert.Contains(t, doc.Content, "the index")
	assert.Equal(t, "compendium", doc.Metadata["source"])
}

func TestMarkdownParserNoFrontmatter(t *testing.T) {
	doc, err := NewMarkdownParser().Parse(context.Background(), strings.NewReader("# Zinc\n\nbody"))
	require.NoError(t, err)

	assert.Equal(t, "Zinc", doc.Title)
	assert.Contains(t, doc.Content, "Zinc")
}

func TestHTMLParserExtractsContent(t *testing.T) {
	html := `<html><head><title>Vitamin D3 Monograph</title>
<style>.x{color:red}</style><script>alert(1)</script></head>
<body><h1>Vitamin D3</h1><p>Used for <b>bone health</b>.</p>
<table><tr><td>Dose</td><td>1000 IU</td></tr></table></body></html>`

	doc, err := NewHTMLParser().Parse(context.Background(), strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "Vitamin D3 Monograph", doc.Title)
	assert.Contains(t, doc.Content, "bone health")
	assert.Contains(t, doc.Content, "1000 IU")
	assert.NotContains(t, doc.Content, "alert(1)")
	assert.NotContains(t, doc.Content, "color:red")
}

func TestHTMLParserTitleFallsBackToH1(t *testing.T) {
	html := `<html><body><h1>Zinc Citrate</h1><p>text</p></body></html>`

	doc, err := NewHTMLParser().Parse(context.Background(), strings.NewReader(html))
	require.NoError(t, err)

	assert.Equal(t, "Zinc Citrate", doc.Title)
}

func TestExtractTitleSkipsHeadingMarkers(t *testing.T) {
	assert.Equal(t, "Ascorbic Acid", ExtractTitle("## Ascorbic Acid\nbody", "x.md"))
	assert.Equal(t, "fallback.md", ExtractTitle("", "/tmp/fallback.md"))
}
