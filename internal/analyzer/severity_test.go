package analyzer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thephilippbusch/tep-app/internal/analyzer"
)

func TestSeverity_String_allLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity analyzer.Severity
		expected string
	}{
		{analyzer.Safe, "SAFE"},
		{analyzer.Low, "LOW"},
		{analyzer.Medium, "MEDIUM"},
		{analyzer.High, "HIGH"},
		{analyzer.Critical, "CRITICAL"},
		{analyzer.Severity(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.severity.String())
		})
	}
}

func TestSeverity_MarshalText(t *testing.T) {
	t.Parallel()

	b, err := analyzer.High.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "HIGH", string(b))
}

func TestParseSeverity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label   string
		want    analyzer.Severity
		wantErr bool
	}{
		{"safe", analyzer.Safe, false},
		{"LOW", analyzer.Low, false},
		{"Medium", analyzer.Medium, false},
		{"high", analyzer.High, false},
		{"critical", analyzer.Critical, false},
		{"unknown", analyzer.Safe, true},
		{"", analyzer.Safe, true},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			t.Parallel()

			got, err := analyzer.ParseSeverity(tt.label)
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeverity_ordering(t *testing.T) {
	t.Parallel()

	assert.Less(t, analyzer.Safe, analyzer.Low)
	assert.Less(t, analyzer.Low, analyzer.Medium)
	assert.Less(t, analyzer.Medium, analyzer.High)
	assert.Less(t, analyzer.High, analyzer.Critical)
}
