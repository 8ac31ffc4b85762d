package version

import (
	"testing"

	"github.com/rxtech-lab/argo-macd/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckResultCompatibility(t *testing.T) {
	tests := []struct {
		name           string
		currentVersion string
		resultVersion  string
		expectCode     errors.ErrorCode
		errorContains  string
	}{
		{name: "exact match", currentVersion: "1.2.0", resultVersion: "1.2.0"},
		{name: "result patch higher", currentVersion: "1.2.0", resultVersion: "1.2.7"},
		{name: "engine patch higher", currentVersion: "1.2.9", resultVersion: "1.2.0"},
		{name: "older result minor", currentVersion: "1.3.0", resultVersion: "1.1.4"},
		{
			name:           "newer result minor",
			currentVersion: "1.2.0",
			resultVersion:  "1.3.0",
			expectCode:     errors.ErrCodeVersionMismatch,
			errorContains:  "newer engine",
		},
		{
			name:           "major differs",
			currentVersion: "2.0.0",
			resultVersion:  "1.9.0",
			expectCode:     errors.ErrCodeVersionMismatch,
			errorContains:  "major version mismatch",
		},
		{name: "engine is main", currentVersion: "main", resultVersion: "4.0.0"},
		{name: "result is main", currentVersion: "0.3.0", resultVersion: "main"},
		{name: "v prefix on both", currentVersion: "v0.3.0", resultVersion: "v0.3.1"},
		{name: "prerelease result", currentVersion: "0.3.0", resultVersion: "0.3.0-rc.1"},
		{
			name:           "invalid engine version",
			currentVersion: "not-a-version",
			resultVersion:  "0.3.0",
			expectCode:     errors.ErrCodeInvalidVersion,
			errorContains:  "invalid engine version",
		},
		{
			name:           "empty result version",
			currentVersion: "0.3.0",
			resultVersion:  "",
			expectCode:     errors.ErrCodeInvalidVersion,
			errorContains:  "invalid result version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckResultCompatibility(tt.currentVersion, tt.resultVersion)

			if tt.expectCode == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.expectCode))
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, Version, GetVersion())
}
