package jobdetect

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/byteowlz/tailr/internal/processor"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// ValidFormat reports whether f is a supported output format.
func ValidFormat(f string) bool {
	switch f {
	case FormatText, FormatMarkdown, FormatJSON:
		return true
	}
	return false
}

// Formatter renders reports for the terminal or a file.
type Formatter struct {
	Format    string
	LineWidth int
	proc      *processor.ContentProcessor
}

func NewFormatter(format string, lineWidth int) *Formatter {
	return &Formatter{Format: format, LineWidth: lineWidth, proc: processor.NewContentProcessor()}
}

// Render formats one report.
func (f *Formatter) Render(r Report) (string, error) {
	switch f.Format {
	case FormatJSON:
		data, err := json.MarshalIndent(r.Message(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode result: %w", err)
		}
		return string(data), nil
	case FormatMarkdown:
		return f.markdown(r), nil
	default:
		return f.text(r), nil
	}
}

// RenderAll formats a batch. JSON batches become one array; other formats
// are joined with a separator line.
func (f *Formatter) RenderAll(reports []Report) (string, error) {
	if f.Format == FormatJSON {
		out := make([]map[string]any, 0, len(reports))
		for _, r := range reports {
			m := r.Message()
			item := map[string]any{"url": r.URL, "found": m.Found, "data": m.Data}
			if m.Error != "" {
				item["error"] = m.Error
			}
			out = append(out, item)
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode results: %w", err)
		}
		return string(data), nil
	}

	parts := make([]string, 0, len(reports))
	for _, r := range reports {
		s, err := f.Render(r)
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	sep := "\n\n" + strings.Repeat("-", 40) + "\n\n"
	if f.Format == FormatMarkdown {
		sep = "\n\n---\n\n"
	}
	return strings.Join(parts, sep), nil
}

func (f *Formatter) text(r Report) string {
	if !r.Result.Found {
		return notFoundLine(r)
	}
	job := r.Result.Job

	var b strings.Builder
	fmt.Fprintf(&b, "Title:    %s\n", job.Title)
	fmt.Fprintf(&b, "Company:  %s\n", job.Company)
	fmt.Fprintf(&b, "Location: %s\n", job.Location)
	fmt.Fprintf(&b, "URL:      %s\n\n", job.SourceURL)
	b.WriteString(f.proc.WrapText(f.proc.CleanNewlines(job.Description), f.LineWidth))
	return b.String()
}

func (f *Formatter) markdown(r Report) string {
	if !r.Result.Found {
		return "_" + notFoundLine(r) + "_"
	}
	job := r.Result.Job

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", job.Title)
	fmt.Fprintf(&b, "**Company:** %s  \n", job.Company)
	fmt.Fprintf(&b, "**Location:** %s  \n", job.Location)
	fmt.Fprintf(&b, "**Source:** <%s>\n\n", job.SourceURL)
	b.WriteString(f.proc.CleanNewlines(job.Description))
	return b.String()
}

func notFoundLine(r Report) string {
	if r.Err != nil {
		return fmt.Sprintf("No job posting found at %s (%v)", r.URL, r.Err)
	}
	return fmt.Sprintf("No job posting found at %s", r.URL)
}
