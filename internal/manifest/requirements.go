package manifest

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Expand splices requirement files into entries. Each entry ending in one
// of opts.Extensions is replaced by the non-blank, non-comment lines of
// <pluginDir>/<RequirementsDir>/<entry>. A named file that does not exist
// is a FormatError.
func Expand(entries []string, pluginDir string, opts Options) ([]string, error) {
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !isRequirementsFile(entry, opts.Extensions) {
			out = append(out, entry)
			continue
		}
		path := filepath.Join(pluginDir, opts.RequirementsDir, entry)
		lines, err := ReadRequirements(path)
		if err != nil {
			return nil, &FormatError{Path: path, Field: entry, Message: "cannot read requirements file", Err: err}
		}
		out = append(out, lines...)
	}
	return out, nil
}

// ReadRequirements returns the requirement lines of a file. Blank lines,
// "#" comment lines and trailing " #" comments are dropped.
func ReadRequirements(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.Index(line, " #"); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, sc.Err()
}

func isRequirementsFile(entry string, exts []string) bool {
	for _, ext := range exts {
		if ext != "" && strings.HasSuffix(strings.ToLower(entry), strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
