package lastfm

import (
	"errors"
	"testing"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		apiKey  string
		wantErr error
	}{
		{
			name:   "valid API key",
			apiKey: "abc123def456abc123def456abc12345",
		},
		{
			name:    "missing API key",
			apiKey:  "",
			wantErr: ErrMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewConfig(tt.apiKey)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewConfig() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr == nil {
				if cfg == nil {
					t.Fatal("NewConfig() returned nil config with no error")
				}
				if cfg.APIKey != tt.apiKey {
					t.Errorf("NewConfig() APIKey = %v, want %v", cfg.APIKey, tt.apiKey)
				}
			} else if cfg != nil {
				t.Errorf("NewConfig() returned non-nil config with error")
			}
		})
	}
}
