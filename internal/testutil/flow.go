package testutil

// FixedRunIDGenerator returns the same run id every time.
//
// Runs recorded with it are byte-identical across test executions, which
// keeps golden history output stable. The id is typically set in the
// scenario YAML:
//
//	run_id: "00000000-0000-7000-8000-000000000001"
//
// Thread-safety: FixedRunIDGenerator is stateless and safe for concurrent use.
type FixedRunIDGenerator struct {
	id string
}

// NewFixedRunIDGenerator creates a generator for id. An empty id becomes
// "test-run-default".
func NewFixedRunIDGenerator(id string) *FixedRunIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDGenerator{id: id}
}

// Generate returns the fixed id. Implements engine.IDGenerator.
func (g *FixedRunIDGenerator) Generate() string {
	return g.id
}
