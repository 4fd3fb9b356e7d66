package gambiterr_test

import (
	"errors"
	"testing"

	"github.com/gambit-chess/engine/pkg/gambiterr"
	"github.com/stretchr/testify/assert"
)

func TestErrorFormatsCodeAndMessage(t *testing.T) {
	err := gambiterr.Validationf(gambiterr.IllegalMove, "square %s is occupied", "e4")
	assert.Equal(t, "ILLEGAL_MOVE: square e4 is occupied", err.Error())
}

func TestWithRequestIDAppendsToMessage(t *testing.T) {
	err := gambiterr.Validationf(gambiterr.IllegalMove, "bad move").WithRequestID("req-1")
	assert.Contains(t, err.Error(), "request req-1")
}

func TestWithRequestIDDoesNotMutateOriginal(t *testing.T) {
	orig := gambiterr.Validationf(gambiterr.IllegalMove, "bad move")
	_ = orig.WithRequestID("req-1")
	assert.Empty(t, orig.RequestID)
}

func TestWrapPreservesCauseWithoutSerializingIt(t *testing.T) {
	cause := errors.New("badger: key not found")
	err := gambiterr.Transientf(cause, "archive unavailable")

	assert.Same(t, cause, errors.Unwrap(err))
	assert.NotContains(t, err.Error(), "badger")
}

func TestRetryableOnlyForTransientInfrastructure(t *testing.T) {
	transient := gambiterr.Transientf(errors.New("timeout"), "store busy")
	internal := gambiterr.Internalf(errors.New("panic recovered"), "unexpected state")
	validation := gambiterr.Validationf(gambiterr.InvalidAction, "bad request")

	assert.True(t, transient.Retryable())
	assert.False(t, internal.Retryable())
	assert.False(t, validation.Retryable())
}

func TestCategoryConstructorsSetExpectedCategory(t *testing.T) {
	assert.Equal(t, gambiterr.Validation, gambiterr.Validationf(gambiterr.InvalidAction, "x").Category)
	assert.Equal(t, gambiterr.Authorization, gambiterr.Authorizationf(gambiterr.Unauthorized, "x").Category)
	assert.Equal(t, gambiterr.StateConsistency, gambiterr.StateConsistencyf(gambiterr.WrongTurn, "x").Category)
}
