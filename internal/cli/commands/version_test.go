package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		wantOut []string
	}{
		{
			name:    "default version",
			version: "0.1.0",
			commit:  "unknown",
			wantOut: []string{"petsales v0.1.0", "commit unknown"},
		},
		{
			name:    "release build",
			version: "1.2.3",
			commit:  "abc1234",
			wantOut: []string{"petsales v1.2.3", "commit abc1234", "go1."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewVersionCommand(tt.version, tt.commit, "2024-12-25")
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)

			require.NoError(t, cmd.Execute())
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := NewVersionCommand("test", "", "")

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Long, "Long should not be empty")
}
