package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensemaker/internal/config"
	"sensemaker/internal/registry"
)

const bundle = `
name: todo
ranges:
  - name: "0-10"
    kind:
      integer: {min: 0, max: 10}
resource_defs:
  - resource_name: task_item
cultural_contexts: []
`

func TestOpenLedgerBackends(t *testing.T) {
	for _, b := range []config.Backend{config.BackendSQLite, config.BackendBadger} {
		t.Run(string(b), func(t *testing.T) {
			l, err := openLedger(config.LedgerConfig{Backend: b, InMemory: true, Author: "tester"}, nil)
			require.NoError(t, err)
			require.NoError(t, l.Close())
		})
	}

	_, err := openLedger(config.LedgerConfig{Backend: "postgres"}, nil)
	assert.Error(t, err)
}

func TestRegisterCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "todo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(bundle), 0o644))
	t.Setenv(config.EnvConfigPath, "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{
		"register", "--backend", "sqlite",
		"--ledger", filepath.Join(dir, "ledger.db"),
		"--author", "tester", "--log-level", "error",
		path,
	})
	require.NoError(t, rootCmd.Execute())

	var reg registry.Registration
	require.NoError(t, json.Unmarshal(out.Bytes(), &reg))
	assert.Equal(t, "todo", reg.Config.Name)
	assert.True(t, reg.Created)
	assert.Contains(t, reg.Config.ResourceDefs, "task_item")
}
