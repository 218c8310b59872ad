// Package render turns a Draft into a file a person can read or publish.
//
// Supported formats:
//   - text    : plain text, the same layout the CLI prints
//   - markdown: headings and lists, ready for a static site
//   - html    : markdown converted with goldmark, wrapped in a page
//   - json    : the Draft itself
//
// Go Pattern: Each format is its own function behind one switch, so a new
// format is one case and one function.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// Format names accepted by Render.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
	FormatJSON     = "json"
)

// Formats lists every supported format in display order.
var Formats = []string{FormatText, FormatMarkdown, FormatHTML, FormatJSON}

// Output is a rendered draft plus what's needed to serve or save it.
type Output struct {
	Body        []byte
	ContentType string
	Extension   string
}

// Render converts d to the requested format.
func Render(d models.Draft, format string) (*Output, error) {
	switch strings.ToLower(format) {
	case FormatText, "txt", "":
		return &Output{Body: []byte(Text(d)), ContentType: "text/plain; charset=utf-8", Extension: ".txt"}, nil
	case FormatMarkdown, "md":
		return &Output{Body: []byte(Markdown(d)), ContentType: "text/markdown; charset=utf-8", Extension: ".md"}, nil
	case FormatHTML:
		page, err := HTML(d)
		if err != nil {
			return nil, err
		}
		return &Output{Body: page, ContentType: "text/html; charset=utf-8", Extension: ".html"}, nil
	case FormatJSON:
		body, err := json.MarshalIndent(d, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode draft: %w", err)
		}
		return &Output{Body: append(body, '\n'), ContentType: "application/json; charset=utf-8", Extension: ".json"}, nil
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// Text lays the draft out as plain text.
func Text(d models.Draft) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📄 %s\n\n", d.FileName)
	fmt.Fprintf(&sb, "%s\n\n", d.Title)
	fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(d.Content))
	fmt.Fprintf(&sb, "%s\n\n", strings.Join(d.Hashtags, " "))
	fmt.Fprintf(&sb, "Platforms: %s\n", strings.Join(d.Platforms, ", "))
	fmt.Fprintf(&sb, "Image prompt: %s\n", d.ImagePrompt)
	return sb.String()
}

// Markdown lays the draft out as a Markdown document.
func Markdown(d models.Draft) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	fmt.Fprintf(&sb, "_Source: %s_\n\n", d.FileName)
	fmt.Fprintf(&sb, "%s\n\n", strings.TrimSpace(d.Content))
	// Backticks keep "#tag" from ever being read as a heading.
	tags := make([]string, len(d.Hashtags))
	for i, tag := range d.Hashtags {
		tags[i] = "`" + tag + "`"
	}
	fmt.Fprintf(&sb, "%s\n\n", strings.Join(tags, " "))
	sb.WriteString("## Platforms\n\n")
	for _, p := range d.Platforms {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	sb.WriteString("\n## Image prompt\n\n")
	fmt.Fprintf(&sb, "> %s\n", strings.ReplaceAll(strings.TrimSpace(d.ImagePrompt), "\n", "\n> "))
	return sb.String()
}

// HTML converts the Markdown layout into a standalone page.
// goldmark's default renderer drops raw HTML, so model output can't inject markup.
func HTML(d models.Draft) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"zh\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(d.Title))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// SanitizeFilename removes characters that aren't safe for filenames.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-",
		"|", "-", "\n", " ", "\r", "",
	)
	name = replacer.Replace(name)

	for strings.Contains(name, "  ") {
		name = strings.ReplaceAll(name, "  ", " ")
	}
	for strings.Contains(name, "--") {
		name = strings.ReplaceAll(name, "--", "-")
	}
	name = strings.TrimSpace(name)

	// Limit length without splitting a multi-byte rune
	if runes := []rune(name); len(runes) > 100 {
		name = string(runes[:100])
	}
	return name
}
