package drafting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

// BuildDraftRequestJSONSchema returns the JSON-Schema a generate request must satisfy
// before it is sent.
func BuildDraftRequestJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	props := map[string]any{
		"document_type": map[string]any{"type": "string", "enum": constants.DocumentTypes()},
		"case_type":     map[string]any{"type": "string", "enum": constants.CaseTypes()},
		"court":         map[string]any{"type": "string", "enum": constants.CourtLevels()},
		"title":         map[string]any{"type": "string", "minLength": 1, "maxLength": 300},
		"facts":         map[string]any{"type": "string", "minLength": 1},
		"parties": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string", "minLength": 1},
		},
		"sections": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string", "minLength": 1},
		},
		"relief_sought":      nullableString,
		"tone":               map[string]any{"type": "string", "enum": constants.Tones()},
		"additional_context": nullableString,
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []string{"document_type", "case_type", "court", "title", "facts"},
	}
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func draftSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(BuildDraftRequestJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("draft_request.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("draft_request.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// ValidateDraftRequest checks req against the draft request schema. Violations
// come back as a VALIDATION_ERROR AppError naming each offending field.
func ValidateDraftRequest(req entity.DraftRequest) error {
	schema, err := draftSchema()
	if err != nil {
		return err
	}
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal request: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return common.NewAppError("VALIDATION_ERROR", describe(ve), common.ErrValidation)
		}
		return fmt.Errorf("request does not match schema: %w", err)
	}
	return nil
}

// describe flattens a validation error tree into "field: message" pairs.
func describe(ve *jsonschema.ValidationError) string {
	var leaves []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := strings.TrimPrefix(e.InstanceLocation, "/")
			if field == "" {
				field = "request"
			}
			leaves = append(leaves, strings.ReplaceAll(field, "/", ".")+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(leaves)
	return strings.Join(leaves, ", ")
}
