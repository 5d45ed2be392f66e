package errors

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUploadErrorWrapping(t *testing.T) {
	cause := New("disk full")
	err := fmt.Errorf("relocate: %w", ErrMove(cause))

	assert.True(t, HasCode(err, CodeMove))
	assert.False(t, HasCode(err, CodeQueue))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, HasCode(cause, CodeMove))
}

func TestScanErrors(t *testing.T) {
	infected := fmt.Errorf("finalize: %w", &InfectedFileError{Filename: "virus.exe"})
	assert.True(t, IsInfected(infected))
	assert.Equal(t, "infected file 'virus.exe' removed", (&InfectedFileError{Filename: "virus.exe"}).Error())

	assert.False(t, IsInfected(&ScanTimeoutError{Timeout: time.Minute}))
	assert.Equal(t, "scan operation timed out after 60 seconds", (&ScanTimeoutError{Timeout: time.Minute}).Error())
}
