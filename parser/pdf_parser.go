package parser

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
)

// minTextLength is the extracted-text length below which a scanned PDF is
// suspected and the OCR tool is tried instead.
const minTextLength = 100

// CommandRunner executes an external binary and returns its stdout.
// It exists so tests can run the parser without pdftotext installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands via os/exec.
type ExecRunner struct{}

// Run executes the command and returns stdout; stderr goes into the error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// PDFParser extracts text from PDF monographs via pdftotext, falling back
// to an OCR tool for scanned documents that yield little or no text layer.
type PDFParser struct {
	runner        CommandRunner
	pdftotextPath string
	ocrPath       string
}

// PDFOption configures a PDFParser.
type PDFOption func(*PDFParser)

// WithRunner injects the command runner.
func WithRunner(r CommandRunner) PDFOption {
	return func(p *PDFParser) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithOCRTool sets the OCR fallback binary. The tool must accept the PDF
// path as its only argument and print recognized text to stdout. Empty
// disables the fallback.
func WithOCRTool(path string) PDFOption {
	return func(p *PDFParser) {
		p.ocrPath = path
	}
}

// NewPDFParser creates a PDF parser around the given pdftotext binary.
func NewPDFParser(pdftotextPath string, opts ...PDFOption) *PDFParser {
	if pdftotextPath == "" {
		pdftotextPath = "pdftotext"
	}
	p := &PDFParser{
		runner:        ExecRunner{},
		pdftotextPath: pdftotextPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse spools the reader to a temp file and parses it. pdftotext only
// works on files.
func (p *PDFParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	tmp, err := os.CreateTemp("", "monoscan-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to spool PDF: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to spool PDF: %w", err)
	}

	return p.ParseFile(ctx, tmp.Name())
}

// ParseFile extracts the text layer of a PDF file. The -layout flag keeps
// column alignment, which the table extractors depend on.
func (p *PDFParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	out, err := p.runner.Run(ctx, p.pdftotextPath, "-layout", "-enc", "UTF-8", filePath, "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext failed: %w", err)
	}

	content := string(out)
	if len(strings.TrimSpace(content)) < minTextLength && p.ocrPath != "" {
		log.Printf("parser: %s has no usable text layer, trying OCR", filePath)
		ocrOut, ocrErr := p.runner.Run(ctx, p.ocrPath, filePath)
		if ocrErr != nil {
			return nil, fmt.Errorf("OCR failed: %w", ocrErr)
		}
		content = string(ocrOut)
	}

	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("no text extracted from %s", filePath)
	}

	return &Document{
		Content: content,
		Title:   ExtractTitle(content, filePath),
		Metadata: map[string]interface{}{
			"extracted_bytes": len(content),
		},
	}, nil
}

// FileType returns the file type this parser handles
func (p *PDFParser) FileType() FileType {
	return FileTypePDF
}
