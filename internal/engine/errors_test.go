package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeErrorMessages(t *testing.T) {
	cause := errors.New("boom")

	spec := NewSpecSyntaxError(3, "a,b", cause)
	assert.Equal(t, `SPEC_SYNTAX: entry 3: cannot parse "a,b": boom`, spec.Error())

	query := NewEnvironmentQueryError("run-1", cause)
	assert.Equal(t, "ENVIRONMENT_QUERY: environment query failed (run=run-1): boom", query.Error())
}

func TestRuntimeErrorClassification(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("install: %w", NewSpecSyntaxError(1, "x", cause))

	assert.True(t, IsSpecSyntaxError(wrapped))
	assert.False(t, IsEnvironmentQueryError(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	assert.True(t, IsEnvironmentQueryError(NewEnvironmentQueryError("", cause)))
	assert.False(t, IsSpecSyntaxError(cause))
}
