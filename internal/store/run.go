package store

import (
	"errors"
	"time"

	"github.com/stuartofmt/pipInstall/internal/ir"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded install.
type Run struct {
	ID             string    `json:"id"`
	Plugin         string    `json:"plugin"`
	PluginDir      string    `json:"plugin_dir"`
	ManifestPath   string    `json:"manifest_path"`
	ManifestDigest string    `json:"manifest_digest"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	ExitCode       int       `json:"exit_code"`
	Warnings       []string  `json:"warnings"`
	ToolVersion    string    `json:"tool_version"`
	RecordVersion  string    `json:"record_version"`

	// Requests is populated by ReadRun only.
	Requests []ir.InstallRequest `json:"requests,omitempty"`
}
