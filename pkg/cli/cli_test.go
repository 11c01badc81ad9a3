package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "tenantgate.sqlite")
}

func TestSeed_CreatesDemoData(t *testing.T) {
	db := testDB(t)

	out, err := runCLI(t, "--db", db, "seed", "--email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "seeded user alice@example.com")
	assert.Contains(t, out, "acme-engineering")
}

func TestSeed_Idempotent(t *testing.T) {
	db := testDB(t)

	_, err := runCLI(t, "--db", db, "seed")
	require.NoError(t, err)

	out, err := runCLI(t, "--db", db, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "already seeded")
}

func TestSeed_RejectsBadEmail(t *testing.T) {
	_, err := runCLI(t, "--db", testDB(t), "seed", "--email", "not-an-email")
	require.Error(t, err)
}

func TestTeam_CreateAndList(t *testing.T) {
	db := testDB(t)

	out, err := runCLI(t, "--db", db, "team", "create", "--name", "Platform", "--slug", "platform")
	require.NoError(t, err)
	assert.Contains(t, out, "platform")

	teamID := extractID(t, out)

	_, err = runCLI(t, "--db", db,
		"team", "add-member", teamID,
		"--user", "u1", "--email", "bob@example.com", "--default")
	require.NoError(t, err)

	out, err = runCLI(t, "--db", db, "team", "list", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "true")
}

func TestTeam_CreateRequiresName(t *testing.T) {
	_, err := runCLI(t, "--db", testDB(t), "team", "create")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tenantgate")
}

// extractID pulls the ID out of "created team <id> (<slug>)".
func extractID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 3, "unexpected output: %q", out)
	return fields[2]
}
