package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// MarkdownParser handles markdown monographs
type MarkdownParser struct{}

// NewMarkdownParser creates a new markdown parser
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{}
}

// Parse reads and parses markdown from the reader
func (p *MarkdownParser) Parse(ctx context.Context, r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read markdown: %w", err)
	}
	return p.parse(string(data), ""), nil
}

// ParseFile reads and parses a markdown file
func (p *MarkdownParser) ParseFile(ctx context.Context, filePath string) (*Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.parse(string(data), filePath), nil
}

// parse processes the markdown content
func (p *MarkdownParser) parse(content, filePath string) *Document {
	metadata := p.extractFrontmatter(content)
	body := p.removeFrontmatter(content)
	body = p.cleanMarkdown(body)

	title := ExtractTitle(body, filePath)
	if frontmatterTitle, ok := metadata["title"].(string); ok {
		title = frontmatterTitle
	}

	metadata["file_size"] = len(content)

	return &Document{
		Content:  body,
		Title:    title,
		Metadata: metadata,
	}
}

// extractFrontmatter parses simple key: value pairs from YAML frontmatter
func (p *MarkdownParser) extractFrontmatter(content string) map[string]interface{} {
	metadata := make(map[string]interface{})
	if !hasFrontmatter(content) {
		return metadata
	}

	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "---" {
			break
		}
		if idx := strings.Index(line, ":"); idx > 0 {
			key := strings.TrimSpace(line[:idx])
			value := strings.Trim(strings.TrimSpace(line[idx+1:]), `"`)
			metadata[key] = value
		}
	}
	return metadata
}

// removeFrontmatter removes YAML frontmatter from content
func (p *MarkdownParser) removeFrontmatter(content string) string {
	if !hasFrontmatter(content) {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}

// hasFrontmatter checks if content has YAML frontmatter
func hasFrontmatter(content string) bool {
	lines := strings.Split(content, "\n")
	return len(lines) >= 2 && strings.TrimSpace(lines[0]) == "---"
}

var (
	headingRe = regexp.MustCompile(`(?m)^#+\s+(.*)$`)
	linkRe    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	imageRe   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
)

// cleanMarkdown strips formatting markers so the section extractors and
// the embedder see plain text. Line layout is preserved: dosage tables
// in markdown monographs keep their column spacing.
func (p *MarkdownParser) cleanMarkdown(content string) string {
	content = headingRe.ReplaceAllString(content, "$1")
	content = imageRe.ReplaceAllString(content, "$1")
	content = linkRe.ReplaceAllString(content, "$1")

	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")

	return strings.TrimSpace(content)
}

// FileType returns the file type this parser handles
func (p *MarkdownParser) FileType() FileType {
	return FileTypeMD
}
