package main

import (
	"bytes"
	"log/slog"
	"testing"

	"document-hydrator/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportValidation(t *testing.T) {
	tests := []struct {
		name      string
		result    *config.ValidationResult
		expectErr bool
		wantLogs  []string
	}{
		{
			name:   "clean",
			result: &config.ValidationResult{},
		},
		{
			name: "warnings only",
			result: &config.ValidationResult{
				Warnings: []config.ValidationWarning{{Field: "sources", Message: "no sources configured"}},
			},
			wantLogs: []string{"configuration warning", "field=sources"},
		},
		{
			name: "errors fail",
			result: &config.ValidationResult{
				Errors: []config.ValidationError{{Field: "server.port", Message: "must be between 1 and 65535", Hint: "use 8080"}},
			},
			expectErr: true,
			wantLogs:  []string{"configuration error", "field=server.port", "hint=\"use 8080\""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			err := reportValidation(logger, tt.result)
			if tt.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantLogs {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
