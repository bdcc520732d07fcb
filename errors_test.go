package ftpserver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDriverErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := newDriverError("couldn't load settings", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "couldn't load settings")
}

func TestNetworkErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := newNetworkError("cannot listen", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "cannot listen")
}

func TestFileAccessErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	err := newFileAccessError("open", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "open")
}
