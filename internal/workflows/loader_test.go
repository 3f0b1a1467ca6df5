package workflows

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleDoc = `
name: example
mcps_required: [git]
steps:
  - action: git.git_status
    params: { repo_path: "." }
    output: status
  - action: log.info
    params: { message: "Status: {{status}}" }
`

func TestLoader_LoadAll_EmptyDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "workflows")
	loader := NewLoader(dir)
	result, err := loader.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
	assert.Empty(t, result.Errors)
}

func TestLoader_LoadAll_ParsesExampleDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example.workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(exampleDoc), 0o644))

	loader := NewLoader(dir)
	result, err := loader.LoadAll()
	require.NoError(t, err)
	require.Len(t, result.Workflows, 1)

	wf := result.Workflows[0].Workflow
	assert.Equal(t, "example", wf.Name)
	require.Len(t, wf.Steps, 2)
	assert.Equal(t, "git.git_status", wf.Steps[0].Action)
	assert.Equal(t, "status", wf.Steps[0].Output)
	assert.Equal(t, ".", wf.Steps[0].Params["repo_path"])
}

func TestLoader_LoadAll_CollectsPerFileErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.workflow.yaml"), []byte("steps: []"), 0o644))

	loader := NewLoader(dir)
	result, err := loader.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
	require.Len(t, result.Errors, 1)
}

func TestParseYAML_ZeroStepWorkflowFailsValidation(t *testing.T) {
	_, err := ParseYAML([]byte("name: empty\nsteps: []"))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseYAML_AggregatesAllViolations(t *testing.T) {
	_, err := ParseYAML([]byte("steps: []\nprompt_mode: bogus"))
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.GreaterOrEqual(t, len(verr.Issues), 2)
}

func TestParseYAML_PreservesUnknownTopLevelKeys(t *testing.T) {
	wf, err := ParseYAML([]byte(`
name: example
x_custom: "preserved"
steps:
  - action: log.info
`))
	require.NoError(t, err)
	assert.Equal(t, "preserved", wf.Extra["x_custom"])
}

func TestParseYAML_RoundTripPreservesCoreFields(t *testing.T) {
	wf, err := ParseYAML([]byte(exampleDoc))
	require.NoError(t, err)

	out, err := yamlRoundTrip(wf)
	require.NoError(t, err)

	assert.Equal(t, wf.Name, out.Name)
	assert.Equal(t, len(wf.Steps), len(out.Steps))
	for i := range wf.Steps {
		assert.Equal(t, wf.Steps[i].Action, out.Steps[i].Action)
		assert.Equal(t, wf.Steps[i].Output, out.Steps[i].Output)
		assert.Equal(t, wf.Steps[i].Params, out.Steps[i].Params)
	}
}

func yamlRoundTrip(w *Workflow) (*Workflow, error) {
	b, err := MarshalYAML(w)
	if err != nil {
		return nil, err
	}
	return ParseYAML(b)
}
