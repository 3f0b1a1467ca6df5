package workflows

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File bundles a parsed, validated Workflow with its source metadata, the
// shape LoadAll returns and the Registry registers from.
type File struct {
	FilePath string
	Workflow *Workflow
	Checksum string
}

// LoadResult is the outcome of scanning a directory of workflow documents.
type LoadResult struct {
	Workflows  []*File
	Errors     []LoadError
	TotalFiles int
}

// LoadError pairs a source file with the error encountered loading it.
type LoadError struct {
	FilePath string
	Error    error
}

// Loader loads Workflow documents from a directory of *.workflow.yaml files.
type Loader struct {
	workflowsDir string
}

func NewLoader(workflowsDir string) *Loader {
	return &Loader{workflowsDir: workflowsDir}
}

// LoadAll scans the loader's directory for workflow documents, collecting
// per-file errors rather than aborting the whole scan.
func (l *Loader) LoadAll() (*LoadResult, error) {
	result := &LoadResult{Workflows: []*File{}, Errors: []LoadError{}}

	if _, err := os.Stat(l.workflowsDir); os.IsNotExist(err) {
		return result, nil
	}

	var allFiles []string
	for _, pattern := range []string{"*.workflow.yaml", "*.workflow.yml"} {
		matches, err := filepath.Glob(filepath.Join(l.workflowsDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow files: %w", err)
		}
		allFiles = append(allFiles, matches...)
	}
	result.TotalFiles = len(allFiles)

	for _, path := range allFiles {
		wf, err := l.LoadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, LoadError{FilePath: path, Error: err})
			continue
		}
		result.Workflows = append(result.Workflows, wf)
	}
	return result, nil
}

// LoadFile parses and validates a single workflow document.
func (l *Loader) LoadFile(filePath string) (*File, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	wf, err := ParseYAML(content)
	if err != nil {
		return nil, err
	}
	return &File{FilePath: filePath, Workflow: wf, Checksum: checksum(content)}, nil
}

// ParseYAML parses and validates a workflow document from raw YAML bytes.
func ParseYAML(content []byte) (*Workflow, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	raw = convertYAMLToJSON(raw).(map[string]any)

	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize workflow document: %w", err)
	}

	var w Workflow
	if err := json.Unmarshal(jsonBytes, &w); err != nil {
		return nil, fmt.Errorf("failed to decode workflow document: %w", err)
	}

	if err := Validate(&w, raw); err != nil {
		return nil, err
	}
	return &w, nil
}

func checksum(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// convertYAMLToJSON normalizes yaml.v3's map[string]interface{} output
// (which may contain map[interface{}]interface{} subtrees under older
// decode paths) into pure map[string]any/[]any so it round-trips through
// encoding/json. Grounded on the teacher's loader.go helper of the same
// name and purpose.
func convertYAMLToJSON(input any) any {
	switch v := input.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = convertYAMLToJSON(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprintf("%v", k)] = convertYAMLToJSON(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = convertYAMLToJSON(val)
		}
		return out
	default:
		return v
	}
}

// MarshalYAML re-serializes a Workflow to YAML, used by the registry to
// persist installed workflows and by round-trip tests.
func MarshalYAML(w *Workflow) ([]byte, error) {
	return yaml.Marshal(w)
}

// ExtractName returns a best-effort workflow name from a file path: its
// base name with the .workflow.yaml/.workflow.yml suffix (or, failing
// that, its extension) removed.
func ExtractName(filePath string) string {
	base := filepath.Base(filePath)
	for _, suffix := range []string{".workflow.yaml", ".workflow.yml"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
