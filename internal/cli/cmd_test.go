package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	core "github.com/alexanderramin/noteline/internal/app"
	"github.com/alexanderramin/noteline/internal/config"
	"github.com/alexanderramin/noteline/internal/db"
	"github.com/alexanderramin/noteline/internal/domain"
	"github.com/alexanderramin/noteline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cliNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

// testApp wires a full App over an in-memory DB and a temp vault.
func testApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Vault.Root = t.TempDir()
	cfg.DB.Path = db.MemoryPath
	cfg.Log.Level = "error"
	cfg.History.Author = "tester"

	a, err := core.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	app := NewApp(a)
	app.Now = func() time.Time { return cliNow }
	return app
}

// seedProject stores project p1 "Launch" with tasks t1 -> t2 and milestone m1.
func seedProject(t *testing.T, app *App) {
	t.Helper()
	p := testutil.NewTestProject("Launch",
		testutil.WithProjectID("p1"),
		testutil.WithItems(
			testutil.NewTestTask("Design", testutil.WithTaskID("t1"), testutil.WithDependencies("t2")),
			testutil.NewTestTask("Build", testutil.WithTaskID("t2"), testutil.WithTaskStatus(domain.TaskDone)),
			testutil.NewTestMilestone("Ship", testutil.WithMilestoneID("m1")),
		),
	)
	app.Store.SaveProject(p)
}

func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func readVaultFile(t *testing.T, app *App, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(app.Config.Vault.Root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func writeVaultFile(t *testing.T, app *App, rel, content string) {
	t.Helper()
	abs := filepath.Join(app.Config.Vault.Root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestVersionCmd(t *testing.T) {
	out, err := executeCmd(t, testApp(t), "version")
	require.NoError(t, err)
	assert.Equal(t, "noteline dev\n", out)
}

func TestResolveProjectID(t *testing.T) {
	app := testApp(t)
	app.Store.SaveProject(testutil.NewTestProject("Launch", testutil.WithProjectID("abc-111")))
	app.Store.SaveProject(testutil.NewTestProject("Backlog", testutil.WithProjectID("abc-222")))

	id, err := resolveProjectID(app, "abc-111")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", id)

	id, err = resolveProjectID(app, "abc-2")
	require.NoError(t, err)
	assert.Equal(t, "abc-222", id)

	id, err = resolveProjectID(app, "launch")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", id)

	_, err = resolveProjectID(app, "abc")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveProjectID(app, "nope")
	assert.ErrorContains(t, err, "not found")

	_, err = resolveProjectID(app, "")
	assert.Error(t, err)
}

func TestResolveItem(t *testing.T) {
	app := testApp(t)
	seedProject(t, app)

	it, err := resolveItem(app, "p1", "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.ItemMilestone, it.Type())

	_, err = resolveItem(app, "p1", "t")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveItem(app, "p1", "x9")
	assert.ErrorContains(t, err, "not found")
}
