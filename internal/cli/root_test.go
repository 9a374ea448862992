package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootHelp(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"--help"})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "DeploySeal")
	assert.Contains(t, out.String(), "commit-push-certify")
}

func TestRootUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"frobnicate"})

	err := rootCmd.Execute()
	require.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"status", "deploy", "push", "certify", "certificates",
		"backup", "audit", "history", "release", "discard",
		"revert", "doctor",
	}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, have[name], "command %q not registered", name)
	}
}

func TestAuditSubcommands(t *testing.T) {
	subs := map[string]bool{}
	for _, c := range auditCmd.Commands() {
		subs[c.Name()] = true
	}
	assert.True(t, subs["verify"])
	assert.True(t, subs["query"])
	assert.True(t, subs["export"])
}

func TestDeployRequiresMessage(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"deploy", "backend"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message")
}
