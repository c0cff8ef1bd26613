package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records invocations and plays back canned outputs per binary.
type fakeRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, name)
	if err := f.errs[name]; err != nil {
		return nil, err
	}
	return f.outputs[name], nil
}

func writePDFStub(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 stub"), 0o644))
	return path
}

func TestPDFParserUsesTextLayer(t *testing.T) {
	text := strings.Repeat("Vitamin C tablet specification. ", 20)
	runner := &fakeRunner{outputs: map[string][]byte{"pdftotext": []byte(text)}}
	p := NewPDFParser("pdftotext", WithRunner(runner), WithOCRTool("ocr"))

	doc, err := p.ParseFile(context.Background(), writePDFStub(t))
	require.NoError(t, err)

	assert.Equal(t, text, doc.Content)
	assert.Equal(t, []string{"pdftotext"}, runner.calls)
}

func TestPDFParserFallsBackToOCR(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{
		"pdftotext": []byte("  \n"), // scanned PDF: empty text layer
		"ocr":       []byte("Ascorbic Acid 500 mg recognized by OCR"),
	}}
	p := NewPDFParser("pdftotext", WithRunner(runner), WithOCRTool("ocr"))

	doc, err := p.ParseFile(context.Background(), writePDFStub(t))
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "Ascorbic Acid")
	assert.Equal(t, []string{"pdftotext", "ocr"}, runner.calls)
}

func TestPDFParserNoOCRConfigured(t *testing.T) {
	runner := &fakeRunner{outputs: map[string][]byte{"pdftotext": []byte("")}}
	p := NewPDFParser("pdftotext", WithRunner(runner))

	_, err := p.ParseFile(context.Background(), writePDFStub(t))
	assert.Error(t, err)
	assert.Equal(t, []string{"pdftotext"}, runner.calls)
}

func TestPDFParserPdftotextError(t *testing.T) {
	runner := &fakeRunner{errs: map[string]error{"pdftotext": errors.New("exit status 1")}}
	p := NewPDFParser("pdftotext", WithRunner(runner))

	_, err := p.ParseFile(context.Background(), writePDFStub(t))
	assert.ErrorContains(t, err, "pdftotext failed")
}

func TestPDFParserOCRError(t *testing.T) {
	runner := &fakeRunner{
		outputs: map[string][]byte{"pdftotext": []byte("")},
		errs:    map[string]error{"ocr": errors.New("tesseract not found")},
	}
	p := NewPDFParser("pdftotext", WithRunner(runner), WithOCRTool("ocr"))

	_, err := p.ParseFile(context.Background(), writePDFStub(t))
	assert.ErrorContains(t, err, "OCR failed")
}

func TestPDFParserMissingFile(t *testing.T) {
	p := NewPDFParser("pdftotext", WithRunner(&fakeRunner{}))

	_, err := p.ParseFile(context.Background(), filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}
