package workflows

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var knownPromptModes = map[PromptMode]bool{
	PromptModeStatic:  true,
	PromptModeDynamic: true,
	PromptModeBoth:    true,
}

var knownTopLevelKeys = map[string]bool{
	"name": true, "description": true, "version": true, "author": true,
	"mcps_required": true, "config_schema": true, "steps": true,
	"timeout": true, "prompt_mode": true,
}

// Validate checks a parsed Workflow against spec.md §4.2's rules, collecting
// every violation rather than failing on the first. raw is the decoded
// top-level YAML map, used to preserve unknown keys and to distinguish
// "field absent" from "field present but zero value".
func Validate(w *Workflow, raw map[string]any) error {
	var issues []ValidationIssue

	if name, ok := raw["name"]; !ok || fmt.Sprint(name) == "" {
		issues = append(issues, ValidationIssue{Path: "/name", Message: "name is required and must be a non-empty string"})
	} else if _, ok := name.(string); !ok {
		issues = append(issues, ValidationIssue{Path: "/name", Message: "name must be a string"})
	}

	if len(w.Steps) == 0 {
		issues = append(issues, ValidationIssue{Path: "/steps", Message: "steps must be a non-empty array"})
	}
	for i, step := range w.Steps {
		path := fmt.Sprintf("/steps/%d/action", i)
		if step.Action == "" {
			issues = append(issues, ValidationIssue{Path: path, Message: "each step must declare a string action"})
		}
	}

	if pm, ok := raw["prompt_mode"]; ok {
		if s, ok := pm.(string); !ok || !knownPromptModes[PromptMode(s)] {
			issues = append(issues, ValidationIssue{
				Path:    "/prompt_mode",
				Message: "prompt_mode must be one of: static, dynamic, both",
			})
		}
	}

	issues = append(issues, validateConfigSchemaDefaults(w.ConfigSchema)...)

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}

	w.Extra = make(map[string]any)
	for k, v := range raw {
		if !knownTopLevelKeys[k] {
			w.Extra[k] = v
		}
	}
	return nil
}

var jsonSchemaTypes = map[ParamType]string{
	ParamTypeString:  "string",
	ParamTypeNumber:  "number",
	ParamTypeBoolean: "boolean",
	ParamTypeArray:   "array",
}

// validateConfigSchemaDefaults checks every config_schema entry's default
// value against its declared type (and, for enum params, its allowed
// values) using a generated JSON schema document per entry.
func validateConfigSchemaDefaults(schema map[string]ConfigParam) []ValidationIssue {
	var issues []ValidationIssue
	for name, param := range schema {
		if param.Default == nil {
			continue
		}

		path := fmt.Sprintf("/config_schema/%s/default", name)

		doc := map[string]any{}
		if param.Type == ParamTypeEnum {
			doc["type"] = "string"
			if len(param.EnumValues) > 0 {
				enumValues := make([]any, len(param.EnumValues))
				for i, v := range param.EnumValues {
					enumValues[i] = v
				}
				doc["enum"] = enumValues
			}
		} else if jsonType, ok := jsonSchemaTypes[param.Type]; ok {
			doc["type"] = jsonType
		} else {
			continue
		}

		result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(doc), gojsonschema.NewGoLoader(param.Default))
		if err != nil {
			issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf("could not validate default against type %q: %v", param.Type, err)})
			continue
		}
		for _, resultErr := range result.Errors() {
			issues = append(issues, ValidationIssue{Path: path, Message: resultErr.String()})
		}
	}
	return issues
}
