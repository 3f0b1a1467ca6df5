package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lacewing/internal/workflows"
)

func sampleWorkflow(name string) *workflows.Workflow {
	return &workflows.Workflow{
		Name:  name,
		Steps: []workflows.Step{{Action: "log.info", Params: map[string]any{"message": "hi"}}},
	}
}

func TestRegistry_LookupMissingReturnsCompositionError(t *testing.T) {
	r := New()

	_, err := r.Lookup("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Workflow 'nope' not found")
}

func TestRegistry_RegisterThenLookup(t *testing.T) {
	r := New()
	r.Register(sampleWorkflow("demo"), "demo.workflow.yaml")

	w, err := r.Lookup("demo")
	require.NoError(t, err)
	assert.Equal(t, "demo", w.Name)
}

func TestRegistry_ListIsSortedByName(t *testing.T) {
	r := New()
	r.Register(sampleWorkflow("zeta"), "")
	r.Register(sampleWorkflow("alpha"), "")

	all := r.List()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name)
	assert.Equal(t, "zeta", all[1].Name)
}

func TestRegistry_UnregisterRemovesWorkflow(t *testing.T) {
	r := New()
	r.Register(sampleWorkflow("demo"), "")
	r.Unregister("demo")

	_, err := r.Lookup("demo")
	assert.Error(t, err)
}

func TestRegistry_LoadDirectoryRegistersParsedWorkflows(t *testing.T) {
	dir := t.TempDir()
	content := []byte("name: from-disk\nsteps:\n  - action: log.info\n    params: { message: hi }\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.workflow.yaml"), content, 0o644))

	r := New()
	result, err := r.LoadDirectory(dir)
	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	w, err := r.Lookup("from-disk")
	require.NoError(t, err)
	assert.Equal(t, "from-disk", w.Name)
}

func TestRegistry_InstallRefusesOverwriteByDefault(t *testing.T) {
	dir := t.TempDir()
	r := New()
	_, err := r.Install(dir, sampleWorkflow("demo"), false)
	require.NoError(t, err)

	_, err = r.Install(dir, sampleWorkflow("demo"), false)
	assert.Error(t, err)
}

func TestRegistry_InstallOverwriteSucceeds(t *testing.T) {
	dir := t.TempDir()
	r := New()
	_, err := r.Install(dir, sampleWorkflow("demo"), false)
	require.NoError(t, err)

	path, err := r.Install(dir, sampleWorkflow("demo"), true)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestRegistry_SearchMatchesNameOrDescription(t *testing.T) {
	r := New()
	w := sampleWorkflow("deploy-service")
	w.Description = "builds and ships the release"
	r.Register(w, "")
	r.Register(sampleWorkflow("unrelated"), "")

	found := r.Search("ships")
	require.Len(t, found, 1)
	assert.Equal(t, "deploy-service", found[0].Name)
}
