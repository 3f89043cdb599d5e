package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/ringd/internal/model"
)

func TestCallParams(t *testing.T) {
	tests := []struct {
		name     string
		ringtone string
		caller   string
		expected model.Params
	}{
		{
			name:     "default ringtone",
			expected: model.Params{model.KeyRingtonePath: ""},
		},
		{
			name:     "named ringtone with caller",
			ringtone: "bell",
			caller:   "Alice",
			expected: model.Params{model.KeyRingtonePath: "bell", model.KeyCallerName: "Alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := callParams(tt.ringtone, tt.caller)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.ringtone, got.RingtonePath())
		})
	}
}

func TestCreateFormatter(t *testing.T) {
	_, err := createFormatter("yaml", "", false)
	assert.NoError(t, err)

	_, err = createFormatter("xml", "", false)
	assert.Error(t, err)
}
