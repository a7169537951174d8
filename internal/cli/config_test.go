package cli

import (
	"testing"
)

func TestValidateConfigKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr bool
	}{
		{name: "bool key true", key: "build.pull", value: "true", wantErr: false},
		{name: "bool key false", key: "build.keep_image", value: "false", wantErr: false},
		{name: "bool key invalid", key: "build.buildkit", value: "yes", wantErr: true},
		{name: "empty tag", key: "build.tag", value: "  ", wantErr: true},
		{name: "valid tag", key: "build.tag", value: "demo:0.0.2", wantErr: false},
		{name: "unknown key passes", key: "build.args.PYTHON_BASE_IMAGE", value: "python:3.11", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateConfigKey(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfigKey(%q, %q) error = %v, wantErr %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}
}
