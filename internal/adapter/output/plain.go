package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

// PlainFormatter formats entries as plain text, one per line.
type PlainFormatter struct {
	opts     FormatterOptions
	template *template.Template
}

// NewPlainFormatter creates a new plain text formatter.
func NewPlainFormatter(opts FormatterOptions) *PlainFormatter {
	f := &PlainFormatter{opts: opts}

	// Parse custom template if provided
	if opts.Template != "" {
		tmpl, err := template.New("plain").Funcs(templateFuncs()).Parse(opts.Template)
		if err == nil {
			f.template = tmpl
		}
	}

	return f
}

// templateData provides data for custom templates.
type templateData struct {
	Index int
	Entry *ringtone.Entry
	Size  string
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"bytes": func(n int64) string {
			return humanizeSize(n)
		},
		"upper": strings.ToUpper,
	}
}

// humanizeSize formats a byte count, or "-" when unknown.
func humanizeSize(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

// Format writes entries as plain text.
func (f *PlainFormatter) Format(w io.Writer, entries []ringtone.Entry) error {
	for i := range entries {
		if err := f.formatEntry(w, i+1, &entries[i]); err != nil {
			return err
		}
	}
	return nil
}

// formatEntry formats a single entry.
func (f *PlainFormatter) formatEntry(w io.Writer, index int, e *ringtone.Entry) error {
	if f.template != nil {
		data := templateData{
			Index: index,
			Entry: e,
			Size:  humanizeSize(e.Size),
		}
		if err := f.template.Execute(w, data); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	}

	sep := f.opts.Separator
	if sep == "" {
		sep = "\t"
	}

	var parts []string
	if f.opts.ShowIndex {
		parts = append(parts, fmt.Sprintf("%d", index))
	}
	parts = append(parts, e.Source, e.Name)
	if f.opts.ShowSize {
		parts = append(parts, humanizeSize(e.Size))
	}
	parts = append(parts, string(e.URI))

	_, err := fmt.Fprintln(w, strings.Join(parts, sep))
	return err
}

// FormatField outputs a specific field from an entry.
func FormatField(e *ringtone.Entry, field string) string {
	switch strings.ToLower(field) {
	case "name":
		return e.Name
	case "uri":
		return string(e.URI)
	case "path":
		return e.URI.Path()
	case "source":
		return e.Source
	case "size":
		return humanizeSize(e.Size)
	default:
		return string(e.URI)
	}
}
