package common

import (
	"testing"

	"resumescan/internal/errors"
)

func TestValidateOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}
	tests := []struct {
		name             string
		format           string
		supportedFormats []string
		expectError      bool
		expectedError    string
	}{
		{name: "json", format: "json", supportedFormats: supported},
		{name: "text", format: "text", supportedFormats: supported},
		{name: "markdown", format: "markdown", supportedFormats: supported},
		{
			name:             "invalid format - xml",
			format:           "xml",
			supportedFormats: supported,
			expectError:      true,
			expectedError:    "unsupported output format 'xml'. Supported formats: [json text markdown]",
		},
		{
			name:             "case sensitive - JSON uppercase",
			format:           "JSON",
			supportedFormats: supported,
			expectError:      true,
		},
		{
			name:             "empty format string",
			format:           "",
			supportedFormats: supported,
			expectError:      true,
		},
		{name: "empty supported formats - should allow all", format: "xml", supportedFormats: []string{}},
		{
			name:             "single supported format - invalid",
			format:           "text",
			supportedFormats: []string{"json"},
			expectError:      true,
			expectedError:    "unsupported output format 'text'. Supported formats: [json]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format, tt.supportedFormats)

			if !tt.expectError {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if code := errors.CodeOf(err); code != errors.ErrCodeInvalidFormat {
				t.Errorf("Expected code %s, got %s", errors.ErrCodeInvalidFormat, code)
			}
			appErr, _ := errors.AsAppError(err)
			if tt.expectedError != "" && appErr.Message != tt.expectedError {
				t.Errorf("Expected error '%s', got '%s'", tt.expectedError, appErr.Message)
			}
		})
	}
}

// Benchmark tests to ensure validation is fast
func BenchmarkValidateOutputFormat(b *testing.B) {
	supportedFormats := []string{"json", "text", "markdown"}

	b.Run("valid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("json", supportedFormats)
		}
	})

	b.Run("invalid format", func(b *testing.B) {
		for b.Loop() {
			_ = ValidateOutputFormat("xml", supportedFormats)
		}
	})
}
