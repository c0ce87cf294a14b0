package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Table: "tasks", Field: "domain", Constraint: "required"}
	assert.Equal(t, "validation error for tasks.domain: required", err.Error())

	err = &ValidationError{Field: "query", Constraint: "required"}
	assert.Equal(t, "validation error for field 'query': required", err.Error())

	wrapped := fmt.Errorf("insert: %w", err)
	assert.True(t, IsValidation(wrapped))
	assert.False(t, IsValidation(errors.New("plain")))
}

func TestCollaboratorError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("agent: %w", NewCollaboratorError("github", "fetch", cause))

	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "github fetch: connection refused")

	var ce *CollaboratorError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "github", ce.Collaborator)
}

func TestOutputConstructors(t *testing.T) {
	out := ErrorOutput("travel", errors.New("timeout"))
	assert.True(t, out.Failed())
	assert.True(t, out.Ran())
	assert.Equal(t, "timeout", out.Error)

	d := Degraded("times", "no times recorded")
	assert.Equal(t, StatusDegraded, d.Status)
	assert.False(t, d.Failed())
	assert.False(t, d.Timestamp.IsZero())
}
