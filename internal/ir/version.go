package ir

// Version constants for the tool and its history schema.
const (
	// ToolVersion is the pipInstall release version.
	ToolVersion = "3.0.0"

	// RecordVersion is the version of the persisted request record layout.
	RecordVersion = "1"
)
