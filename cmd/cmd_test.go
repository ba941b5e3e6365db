package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/lainio/err2/assert"
)

func execute(args ...string) (string, error) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	out, err := execute("version")
	assert.NoError(err)
	assert.Equal(strings.TrimSpace(out), utils.Version)
}

func TestDryRun(t *testing.T) {
	tests := []struct {
		name string
		args []string
		ok   bool
	}{
		{"serve", []string{"serve", "-n", "--name", "dry"}, true},
		{"serve grpc without secret", []string{"serve", "-n", "--grpc-port", "50051"}, false},
		{"serve grpc", []string{"serve", "-n", "--grpc-port", "50051", "--grpc-jwt-secret", "secret"}, true},
		{"serve bad backend", []string{"serve", "-n", "--storage-backend", "redis"}, false},
		{"demo", []string{"demo", "-n", "--formats", "indy", "--protocol-version", "v1"}, true},
		{"demo bad version", []string{"demo", "-n", "--formats", "sdjwt", "--protocol-version", "v1"}, false},
		{"records", []string{"records", "-n", "--name", "issuer"}, true},
		{"records bad role", []string{"records", "-n", "--role", "verifier"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.PushTester(t)
			defer assert.PopTester()

			_, err := execute(tt.args...)
			if tt.ok {
				assert.NoError(err)
			} else {
				assert.Error(err)
			}
		})
	}
}

func TestGetEnvName(t *testing.T) {
	assert.PushTester(t)
	defer assert.PopTester()

	assert.Equal(getEnvName("", "logging"), "CREDEX_LOGGING")
	assert.Equal(getEnvName("SERVE", "NATS_URL"), "CREDEX_SERVE_NATS_URL")
	assert.That(strings.HasSuffix(flagInfo("info", "SERVE", "NAME"), "CREDEX_SERVE_NAME"))
}
