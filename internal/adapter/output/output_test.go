package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/ringd/internal/ringtone"
)

func testEntries() []ringtone.Entry {
	return []ringtone.Entry{
		{
			Name:   "ringtone_default",
			URI:    ringtone.BundledURI("ringtone_default.wav"),
			Source: "bundled",
			Size:   64044,
		},
		{
			Name:   "/usr/share/sounds/freedesktop/stereo/phone-incoming-call.oga",
			URI:    ringtone.FileURI("/usr/share/sounds/freedesktop/stereo/phone-incoming-call.oga"),
			Source: "system-default",
			Size:   0,
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected FormatType
		wantErr  bool
	}{
		{input: "", expected: FormatPlain},
		{input: "plain", expected: FormatPlain},
		{input: "JSON", expected: FormatJSON},
		{input: "yaml", expected: FormatYAML},
		{input: "uris", expected: FormatURIs},
		{input: "dmenu", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	formatter := NewPlainFormatter(DefaultFormatterOptions())
	require.NoError(t, formatter.Format(&buf, testEntries()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, "bundled\tringtone_default\t64 kB\tbundled:ringtone_default.wav", lines[0])
	assert.Contains(t, lines[1], "system-default")
	assert.Contains(t, lines[1], "\t-\t")
}

func TestPlainFormatter_IndexAndSeparator(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{ShowIndex: true, Separator: " | "}
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testEntries()[:1]))

	assert.Equal(t, "1 | bundled | ringtone_default | bundled:ringtone_default.wav\n", buf.String())
}

func TestPlainFormatter_Template(t *testing.T) {
	var buf bytes.Buffer

	opts := FormatterOptions{Template: "{{.Index}}: {{.Entry.Name}} ({{bytes .Entry.Size}})"}
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testEntries()[:1]))

	assert.Equal(t, "1: ringtone_default (64 kB)\n", buf.String())
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, testEntries()))

	var decoded []ringtone.Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testEntries(), decoded)
}

func TestJSONFormatter_EmptyIsArray(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewYAMLFormatter(FormatterOptions{}).Format(&buf, testEntries()))
	assert.Contains(t, buf.String(), "- name: ringtone_default\n")
	assert.Contains(t, buf.String(), "  source: bundled\n")

	var decoded []ringtone.Entry
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, testEntries(), decoded)
}

func TestURIsFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, NewURIsFormatter().Format(&buf, testEntries()))
	assert.Equal(t,
		"bundled:ringtone_default.wav\nfile:///usr/share/sounds/freedesktop/stereo/phone-incoming-call.oga\n",
		buf.String())
}

func TestFormatField(t *testing.T) {
	e := testEntries()[1]

	assert.Equal(t, "/usr/share/sounds/freedesktop/stereo/phone-incoming-call.oga", FormatField(&e, "path"))
	assert.Equal(t, "system-default", FormatField(&e, "SOURCE"))
	assert.Equal(t, "-", FormatField(&e, "size"))
	assert.Equal(t, string(e.URI), FormatField(&e, "unknown"))
}

func TestNewFormatter(t *testing.T) {
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, FormatterOptions{}))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, FormatterOptions{}))
	assert.IsType(t, &URIsFormatter{}, NewFormatter(FormatURIs, FormatterOptions{}))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("other", FormatterOptions{}))
}
