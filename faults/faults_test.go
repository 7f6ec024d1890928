package faults_test

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"

	"davbak/faults"
)

func TestNew(t *testing.T) {
	err := faults.New(faults.ErrConfiguration, "KEEP_DAYS must be at least 1, got %d", 0)
	assert.ErrorIs(t, err, faults.ErrConfiguration)
	assert.Contains(t, err.Error(), "KEEP_DAYS must be at least 1, got 0")
}

func TestWrap(t *testing.T) {
	err := faults.Wrap(faults.ErrTransfer, fs.ErrNotExist, "could not download %s", "a.zip")
	assert.ErrorIs(t, err, faults.ErrTransfer)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "could not download a.zip")
}

func TestWrap_NilCause(t *testing.T) {
	err := faults.Wrap(faults.ErrArchive, nil, "empty archive")
	assert.ErrorIs(t, err, faults.ErrArchive)
	assert.False(t, errors.Is(err, faults.ErrTransfer))
}
