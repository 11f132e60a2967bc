// Package manifest loads the plugin's dependency manifest.
//
// A manifest is a JSON object holding the plugin name and an ordered list
// of specification strings:
//
//	{
//	  "name": "MyPlugin",
//	  "sbcPythonDependencies": ["--verbose", "requests", "flask>=2.0", "extra.txt"]
//	}
//
// The document is validated against a CUE schema before use. A leading
// "--verbose" entry switches the run to debug output. Entries ending in a
// requirements extension name files under the plugin's requirements
// directory; their lines are spliced into the list in place.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"
)

// VerboseMarker as the first entry enables verbose output.
const VerboseMarker = "--verbose"

// Options name the manifest keys and requirement file locations.
type Options struct {
	// Key holds the dependency list.
	Key string

	// NameKey holds the plugin name.
	NameKey string

	// RequirementsDir is the requirements file directory, relative to the
	// plugin directory.
	RequirementsDir string

	// Extensions mark entries that name requirement files.
	Extensions []string
}

// DefaultOptions returns the keys and locations used by default.
func DefaultOptions() Options {
	return Options{
		Key:             "sbcPythonDependencies",
		NameKey:         "name",
		RequirementsDir: "dsf",
		Extensions:      []string{".txt"},
	}
}

// Manifest is a validated manifest.
type Manifest struct {
	Path    string   `json:"path"`
	Name    string   `json:"name"`
	Verbose bool     `json:"verbose"`
	Entries []string `json:"entries"` // raw entries, verbose marker removed
}

// FormatError reports a manifest that is not well-formed or lacks the
// dependency key.
type FormatError struct {
	Path    string
	Field   string
	Message string
	Pos     token.Pos
	Err     error
}

func (e *FormatError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsFormatError returns true if err is a FormatError.
// Uses errors.As to handle wrapped errors.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Load reads and validates the manifest at path. A missing file is
// returned as an fs.ErrNotExist error, not a FormatError.
func Load(path string, opts Options) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(path, data, opts)
}

// Parse validates data as a manifest named path.
func Parse(path string, data []byte, opts Options) (*Manifest, error) {
	expr, err := cuejson.Extract(path, data)
	if err != nil {
		return nil, &FormatError{Path: path, Message: "not a properly formatted json file", Err: err}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource(opts), cue.Filename("manifest.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("internal error: failed to compile manifest schema: %w", err)
	}

	doc := ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return nil, formatCUEError(path, err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(path, err)
	}

	keyPath := cue.MakePath(cue.Str(opts.Key))
	if !doc.LookupPath(keyPath).Exists() {
		return nil, &FormatError{Path: path, Field: opts.Key, Message: "key is missing"}
	}
	listVal := unified.LookupPath(keyPath)
	var entries []string
	if err := listVal.Decode(&entries); err != nil {
		return nil, formatCUEError(path, err)
	}

	m := &Manifest{Path: path}
	if nameVal := doc.LookupPath(cue.MakePath(cue.Str(opts.NameKey))); nameVal.Exists() {
		if m.Name, err = nameVal.String(); err != nil {
			return nil, formatCUEError(path, err)
		}
	}
	if len(entries) > 0 && entries[0] == VerboseMarker {
		m.Verbose = true
		entries = entries[1:]
	}
	m.Entries = entries
	return m, nil
}

// schemaSource builds the manifest schema for the configured keys.
func schemaSource(opts Options) string {
	return fmt.Sprintf(`#Manifest: {
	%s?: string
	%s!: [...string]
	...
}
`, strconv.Quote(opts.NameKey), strconv.Quote(opts.Key))
}

// formatCUEError keeps the first CUE error with its position.
func formatCUEError(path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &FormatError{Path: path, Message: err.Error(), Err: err}
	}
	first := errs[0]
	fe := &FormatError{Path: path, Field: "schema", Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		fe.Pos = positions[0]
	}
	return fe
}
