package core

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"bare sentinel", ErrColumnNotFound, "COLUMN_NOT_FOUND"},
		{"wrapped sentinel", errors.Wrapf(ErrTypeMismatch, "column %q", "age"), "TYPE_MISMATCH"},
		{"fmt wrapped", fmt.Errorf("step 2: %w", ErrSampleSizeExceedsRows), "SAMPLE_SIZE_EXCEEDS_ROWS"},
		{"foreign error", errors.New("disk on fire"), "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}

func TestIsRequestError(t *testing.T) {
	assert.True(t, IsRequestError(errors.Wrap(ErrMissingAggregation, "query")))
	assert.False(t, IsRequestError(ErrNoDataset))
	assert.False(t, IsRequestError(errors.New("boom")))
	assert.False(t, IsRequestError(nil))
}

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		success  bool
	}{
		{"int", 10, 10.0, true},
		{"int8", int8(20), 20.0, true},
		{"int64", int64(50), 50.0, true},
		{"uint32", uint32(7), 7.0, true},
		{"float32", float32(60.5), 60.5, true},
		{"float64", 70.5, 70.5, true},
		{"numeric string", "100", 0, false},
		{"nil", nil, 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ToFloat64(tt.input)
			assert.Equal(t, tt.success, ok)
			if tt.success {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}
