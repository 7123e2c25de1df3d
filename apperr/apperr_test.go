package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindRetryable(t *testing.T) {
	tests := []struct {
		kind      Kind
		retryable bool
	}{
		{KindLaunch, false},
		{KindNotInitialized, false},
		{KindInvalidInput, false},
		{KindExtractionTimeout, true},
		{KindExtraction, true},
		{KindCellFormat, true},
		{KindMissingColumn, true},
		{KindTypeConversion, true},
		{Kind("SOMETHING_ELSE"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.kind.Retryable())
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(KindExtraction, cause, "failed to extract table")

	require.Error(t, err)
	assert.Equal(t, "failed to extract table: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindExtraction))
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(KindExtraction, nil, "unused"))
	assert.NoError(t, Wrapf(KindExtraction, nil, "unused %d", 1))
}

func TestKindOfThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("target 2024-02-01/1: %w", New(KindMissingColumn, "no hora column"))

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindMissingColumn, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}
