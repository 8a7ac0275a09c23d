package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResumeMode(t *testing.T) {
	mode, err := ParseResumeMode("full-cursor")
	require.NoError(t, err)
	assert.Equal(t, ResumeFullCursor, mode)

	mode, err = ParseResumeMode("cache-check")
	require.NoError(t, err)
	assert.Equal(t, ResumeCacheCheck, mode)

	_, err = ParseResumeMode("fast")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestResumeMode_String(t *testing.T) {
	assert.Equal(t, "full-cursor", ResumeFullCursor.String())
	assert.Equal(t, "cache-check", ResumeCacheCheck.String())
}

func TestValidateResume(t *testing.T) {
	assert.NoError(t, ValidateResume(ResumeFullCursor, ""))
	assert.NoError(t, ValidateResume(ResumeCacheCheck, ""))
	assert.NoError(t, ValidateResume(ResumeCacheCheck, "44-1"))

	// A filtered run resuming from the global cursor would skip rows
	// belonging to other filter values at lower ids.
	assert.ErrorIs(t, ValidateResume(ResumeFullCursor, "44-1"), ErrFilteredCursorResume)
}
