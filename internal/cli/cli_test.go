package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/views"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func sqliteURL(t *testing.T) string {
	return "sqlite:" + filepath.Join(t.TempDir(), "cloudsync.db")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestServersList_EmptyCloud(t *testing.T) {
	out, err := run(t, "--memory", "servers", "list", "--cloud", "7", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestServersList_UnknownOutput(t *testing.T) {
	_, err := run(t, "--memory", "servers", "list", "--cloud", "7", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported --output")
}

func TestInvalidDriver(t *testing.T) {
	_, err := run(t, "--driver", "oracle", "servers", "list", "--cloud", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported repository type")
}

func TestSchemaApply_SQLite(t *testing.T) {
	out, err := run(t, "--sqlite-url", sqliteURL(t), "schema", "apply")
	require.NoError(t, err)
	assert.Equal(t, "schema applied (sqlite)\n", out)
}

func TestRefDataSync_RefreshAndPrune(t *testing.T) {
	dir := t.TempDir()
	url := sqliteURL(t)
	full := writeFile(t, dir, "full.yaml", `
referenceData:
  - externalId: f1
    name: small
  - externalId: f2
    name: medium
  - externalId: f3
    name: large
`)
	pruned := writeFile(t, dir, "pruned.yaml", `
referenceData:
  - externalId: f1
    name: small
  - externalId: f3
    name: xlarge
`)

	out, err := run(t, "--sqlite-url", url, "refdata", "sync", "--cloud", "1", "--category", "flavor", "-f", full)
	require.NoError(t, err)
	assert.Equal(t, "reference data: added 3, updated 0, removed 0\n", out)

	out, err = run(t, "--sqlite-url", url, "refdata", "sync", "--cloud", "1", "--category", "flavor", "-f", pruned)
	require.NoError(t, err)
	assert.Equal(t, "reference data: added 0, updated 2, removed 1\n", out)

	out, err = run(t, "--sqlite-url", url, "refdata", "list", "--cloud", "1", "--category", "flavor", "--full", "-o", "json")
	require.NoError(t, err)
	var entries []models.ReferenceData
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	names := map[string]string{}
	for _, e := range entries {
		names[e.ExternalID] = e.Name
	}
	assert.Equal(t, map[string]string{"f1": "small", "f3": "xlarge"}, names)
}

func TestRefDataSaveBufferedThenFind(t *testing.T) {
	url := sqliteURL(t)
	out, err := run(t, "--sqlite-url", url, "refdata", "save", "--cloud", "2", "--category", "network",
		"--external-id", "net-1", "--name", "private")
	require.NoError(t, err)
	assert.Equal(t, "buffered 2/network/net-1\n", out)

	// closing the command flushed the buffer
	out, err = run(t, "--sqlite-url", url, "refdata", "find", "net-1", "missing", "-o", "json")
	require.NoError(t, err)
	var entries []models.ReferenceData
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "private", entries[0].Name)
	assert.Equal(t, int64(2), entries[0].CloudID)
}

func TestRefDataPrune_EmptyKeepSetEmptiesCategory(t *testing.T) {
	url := sqliteURL(t)
	for _, id := range []string{"a", "b"} {
		_, err := run(t, "--sqlite-url", url, "refdata", "save", "--flush", "--cloud", "3", "--category", "image",
			"--external-id", id)
		require.NoError(t, err)
	}

	out, err := run(t, "--sqlite-url", url, "refdata", "prune", "--cloud", "3", "--category", "image")
	require.NoError(t, err)
	assert.Equal(t, "pruned 3/image, kept 0\n", out)

	out, err = run(t, "--sqlite-url", url, "refdata", "list", "--cloud", "3", "--category", "image", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestServersSync(t *testing.T) {
	dir := t.TempDir()
	url := sqliteURL(t)
	listing := writeFile(t, dir, "servers.yaml", `
servers:
  - externalId: i-1
    name: web-1
    powerState: on
  - externalId: i-2
    name: web-2
    powerState: off
`)
	out, err := run(t, "--sqlite-url", url, "servers", "sync", "--cloud", "4", "--account", "1", "-f", listing)
	require.NoError(t, err)
	assert.Equal(t, "servers: added 2, updated 0, removed 0\n", out)

	out, err = run(t, "--sqlite-url", url, "servers", "list", "--cloud", "4", "-o", "json")
	require.NoError(t, err)
	var projections []models.ComputeServerIdentityProjection
	require.NoError(t, json.Unmarshal([]byte(out), &projections))
	require.Len(t, projections, 2)

	shrunk := writeFile(t, dir, "shrunk.yaml", `
servers:
  - externalId: i-2
    name: web-2-renamed
    powerState: on
`)
	out, err = run(t, "--sqlite-url", url, "servers", "sync", "--cloud", "4", "--account", "1", "-f", shrunk)
	require.NoError(t, err)
	assert.Equal(t, "servers: added 0, updated 1, removed 1\n", out)

	out, err = run(t, "--sqlite-url", url, "servers", "list", "--cloud", "4", "-o", "json")
	require.NoError(t, err)
	projections = nil
	require.NoError(t, json.Unmarshal([]byte(out), &projections))
	require.Len(t, projections, 1)
	assert.Equal(t, "web-2-renamed", projections[0].Name)
}

func TestKeysEnsure(t *testing.T) {
	out, err := run(t, "--memory", "keys", "ensure", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "cloudsync-account-42 SHA256:")
	assert.Contains(t, out, "ssh-ed25519 ")
}

func TestTemplateResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hbs/server-detail.hbs", "<div>{{name}}</div>")
	t.Setenv("CLOUDSYNC_TEMPLATES_DIR", dir)

	out, err := run(t, "template", "resolve", "server-detail")
	require.NoError(t, err)
	assert.Equal(t, "<div>{{name}}</div>", out)

	out, err = run(t, "template", "resolve", "--location", "/server-detail.hbs")
	require.NoError(t, err)
	assert.Equal(t, "hbs/server-detail.hbs\n", out)

	_, err = run(t, "template", "resolve", "missing")
	require.ErrorIs(t, err, views.ErrTemplateNotFound)
}
