package persist

import (
	"bytes"
	"strings"
)

// DefaultComments returns the standard annotations written above known
// top-level keys. Keys absent from a document are simply skipped.
func DefaultComments() map[string]string {
	return map[string]string{
		"projectName":    "Human-readable project identifier.",
		"projectLicense": "SPDX license expression for generated files.",
		"packageManager": "Package manager used for installs and scripts.",
		"framework":      "Primary application framework.",
		"features":       "Enabled project capabilities.",
		"formatting":     "Source formatting preferences.",
		"paths":          "Project directory layout.",
		"_version":       "Document format version. Managed automatically.",
	}
}

// Annotate inserts line comments above known top-level keys of an
// indented JSON document and collapses runs of blank lines. The result
// is still parseable by the JSONC loader.
func Annotate(data []byte, comments map[string]string) []byte {
	if len(comments) == 0 {
		return collapseBlankLines(data)
	}

	lines := strings.Split(string(data), "\n")
	out := make([]string, 0, len(lines)+len(comments))

	for _, line := range lines {
		if key, ok := topLevelKey(line); ok {
			if comment, has := comments[key]; has {
				out = append(out, "  // "+comment)
			}
		}
		out = append(out, line)
	}

	return collapseBlankLines([]byte(strings.Join(out, "\n")))
}

// topLevelKey extracts the key from a line of the form `  "key": ...`.
// Only lines at the first indent level qualify.
func topLevelKey(line string) (string, bool) {
	if !strings.HasPrefix(line, `  "`) {
		return "", false
	}

	rest := line[3:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", false
	}
	if !strings.HasPrefix(rest[end+1:], ":") {
		return "", false
	}
	return rest[:end], true
}

// collapseBlankLines reduces any run of blank lines to a single one.
func collapseBlankLines(data []byte) []byte {
	lines := bytes.Split(data, []byte("\n"))
	out := make([][]byte, 0, len(lines))
	blank := false

	for _, line := range lines {
		if len(bytes.TrimSpace(line)) == 0 {
			if blank {
				continue
			}
			blank = true
			out = append(out, nil)
			continue
		}
		blank = false
		out = append(out, line)
	}

	return bytes.Join(out, []byte("\n"))
}
