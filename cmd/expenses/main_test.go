package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is an isolated config file and database.
type testEnv struct {
	dir    string
	config string
	db     string
}

func newTestEnv(t *testing.T, extraConfig string) testEnv {
	t.Helper()
	dir := t.TempDir()
	env := testEnv{
		dir:    dir,
		config: filepath.Join(dir, "config.yaml"),
		db:     filepath.Join(dir, "expenses.db"),
	}
	content := "locale: en-US\ntimezone: UTC\nlogging:\n  level: error\n" + extraConfig
	require.NoError(t, os.WriteFile(env.config, []byte(content), 0o600))
	return env
}

// run executes the command line and returns its standard output.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e testEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(t, args...)
	require.NoError(t, err, "expenses %s", strings.Join(args, " "))
	return out
}

func (e testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	names := make(map[string]*cobra.Command)
	for _, c := range root.Commands() {
		names[c.Name()] = c
	}
	for _, want := range []string{
		"init", "migrate", "import", "add", "report", "months",
		"browse", "vendors", "categories", "rules", "sample", "version",
	} {
		assert.Contains(t, names, want)
	}

	sub := func(parent string) []string {
		var out []string
		for _, c := range names[parent].Commands() {
			out = append(out, c.Name())
		}
		return out
	}
	assert.ElementsMatch(t, []string{"sms", "ofx"}, sub("import"))
	assert.ElementsMatch(t, []string{"list", "set-category"}, sub("vendors"))
	assert.ElementsMatch(t, []string{"list"}, sub("categories"))
	assert.ElementsMatch(t, []string{"list", "load"}, sub("rules"))

	for _, flag := range []string{"config", "log-level", "log-format", "db"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t, "")
	out := env.mustRun(t, "version")
	assert.Equal(t, "expenses dev\n", out)
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, "import:\n  default_currency: nope\n")
	_, err := env.run(t, "categories", "list")
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestInvalidLogLevelFlag(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.run(t, "--log-level", "loud", "version")
	assert.ErrorContains(t, err, "log level")
}

func TestInitCmd(t *testing.T) {
	env := newTestEnv(t, "")

	out := env.mustRun(t, "init")
	assert.Contains(t, out, "Initialized")

	out = env.mustRun(t, "init")
	assert.Contains(t, out, "already initialized")

	out = env.mustRun(t, "categories", "list")
	for _, name := range []string{"Apartment", "Groceries", "Games"} {
		assert.Contains(t, out, name)
	}

	out = env.mustRun(t, "rules", "list")
	assert.Contains(t, out, "CHASE")
	assert.Contains(t, out, "REVOLUT")
}

func TestInitCmd_WithSample(t *testing.T) {
	env := newTestEnv(t, "sample:\n  vendors: 4\n  purchases: 25\n")

	env.mustRun(t, "init", "--sample")

	out := env.mustRun(t, "vendors", "list")
	assert.Equal(t, 4+2, strings.Count(out, "\n"), "header, separator and one line per vendor")

	out = env.mustRun(t, "months", "--currency", "USD")
	assert.Contains(t, out, "2023")
}

func TestInitCmd_SeedsAfterFailedAttempt(t *testing.T) {
	rulesDir := filepath.Join(t.TempDir(), "rules")
	require.NoError(t, os.Mkdir(rulesDir, 0o750))
	rulesFile := filepath.Join(rulesDir, "bank.csv")
	require.NoError(t, os.WriteFile(rulesFile,
		[]byte("sender,regex,currency\nBANK, \"Paid (?P<AMOUNT>[\\d.,]+ at (?P<VENDOR>.+)\", USD\n"), 0o600))

	env := newTestEnv(t, "rules:\n  dir: "+rulesDir+"\n")

	_, err := env.run(t, "init")
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load sms rules")

	require.NoError(t, os.WriteFile(rulesFile, []byte(testRulesCSV), 0o600))

	out := env.mustRun(t, "init")
	assert.Contains(t, out, "Initialized")

	out = env.mustRun(t, "categories", "list")
	assert.Contains(t, out, "Groceries")

	out = env.mustRun(t, "rules", "list")
	assert.Contains(t, out, "BANK")
}

func TestMigrateCmd(t *testing.T) {
	env := newTestEnv(t, "")
	out := env.mustRun(t, "migrate")
	assert.Contains(t, out, "schema is at version")
}
