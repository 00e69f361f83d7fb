package projector_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	projector "github.com/cloudxsgmbh/sparse-projector"
)

func TestError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := projector.NewError("cannot load", projector.WithCode(projector.ErrArgument), projector.WithCause(cause))

	assert.Equal(t, "[ArgumentError] cannot load: disk on fire", err.Error())
	assert.ErrorIs(t, err, projector.ErrArgument)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, projector.ErrSchemaViolation)
	assert.ErrorIs(t, fmt.Errorf("wrapped: %w", err), &projector.Error{Code: projector.ErrArgument})

	transport := projector.NewError("ignored", projector.WithCode(projector.ErrTransport), projector.WithCause(cause))
	assert.Equal(t, "disk on fire", transport.Error(), "transport errors read like their cause")

	assert.Equal(t, "plain", projector.NewError("plain").Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, projector.ErrFieldNotFound,
		projector.CodeOf(fmt.Errorf("ctx: %w", projector.NewError("x", projector.WithCode(projector.ErrFieldNotFound)))))
	assert.Equal(t, projector.ErrorCode(""), projector.CodeOf(errors.New("other")))
}
