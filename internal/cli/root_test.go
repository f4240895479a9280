package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllActionsRegistered(t *testing.T) {
	expected := []string{
		"create",
		"terminate",
		"stop",
		"restart",
		"cancel_spot",
		"instance_setup",
		"run",
		"log",
		"shell",
		"copy_local",
		"copy_from_s3",
		"get_instance",
		"version",
		"completion",
	}

	registered := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Name()] = true
	}

	for _, name := range expected {
		assert.True(t, registered[name], "command %q not registered", name)
	}
}

func TestIndexScopedCommandsHaveInstanceFlag(t *testing.T) {
	indexScoped := []string{
		"create", "terminate", "stop", "restart", "cancel_spot",
		"instance_setup", "run", "log", "shell", "copy_local",
		"copy_from_s3", "get_instance",
	}

	for _, name := range indexScoped {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		flag := cmd.Flags().Lookup("instance_no")
		require.NotNil(t, flag, "%s missing --instance_no", name)
		assert.Equal(t, "i", flag.Shorthand)
		assert.Equal(t, "0", flag.DefValue)
	}
}

func TestValidateIndex(t *testing.T) {
	assert.NoError(t, validateIndex(0))
	assert.NoError(t, validateIndex(3))
	assert.Error(t, validateIndex(-1))
}

func TestUnknownActionFails(t *testing.T) {
	_, _, err := rootCmd.Find([]string{"frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev", formatVersion("dev"))
	assert.Equal(t, "v1.2.3", formatVersion("1.2.3"))
	assert.Equal(t, "v1.2.3", formatVersion("v1.2.3"))
	assert.Equal(t, "", formatVersion(""))
}
