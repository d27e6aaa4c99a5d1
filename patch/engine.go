package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dzahariev/respite-users/domain"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/go-openapi/jsonpointer"
)

// UnknownPathPolicy decides what happens to an operation whose path does
// not name a known field.
type UnknownPathPolicy string

const (
	RejectUnknownPath UnknownPathPolicy = "reject"
	IgnoreUnknownPath UnknownPathPolicy = "ignore"
)

// Options configure an Engine. Zero values fall back to the defaults.
type Options struct {
	UnknownPath UnknownPathPolicy
	// Kinds enabled for clients. Empty means AllKinds.
	Kinds []Kind
}

var (
	// writableFields are the user fields a patch may touch.
	writableFields = map[string]bool{"name": true, "info": true}
	readOnlyFields = map[string]bool{"id": true}
)

// Engine turns a request body into operations and applies them.
type Engine struct {
	unknownPath UnknownPathPolicy
	kinds       map[Kind]bool
}

// NewEngine validates the options and builds an Engine.
func NewEngine(opts Options) (*Engine, error) {
	engine := &Engine{
		unknownPath: opts.UnknownPath,
		kinds:       map[Kind]bool{},
	}
	switch engine.unknownPath {
	case "":
		engine.unknownPath = RejectUnknownPath
	case RejectUnknownPath, IgnoreUnknownPath:
	default:
		return nil, fmt.Errorf("unknown path policy %q, expected %q or %q", opts.UnknownPath, RejectUnknownPath, IgnoreUnknownPath)
	}

	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = AllKinds
	}
	for _, kind := range kinds {
		if !isKnownKind(kind) {
			return nil, fmt.Errorf("unknown patch operation %q", kind)
		}
		engine.kinds[kind] = true
	}
	return engine, nil
}

// ParseKinds converts configured op names into kinds.
func ParseKinds(names []string) []Kind {
	kinds := make([]Kind, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			kinds = append(kinds, Kind(name))
		}
	}
	return kinds
}

// Parse decodes a JSON-Patch document and validates every entry before any
// of them is applied. Operations dropped by the unknown path policy are not
// returned.
func (e *Engine) Parse(body []byte) ([]Operation, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &domain.ValidationError{Message: "patch body must be a JSON array of operations"}
	}
	raws := []rawOperation{}
	err := json.Unmarshal(trimmed, &raws)
	if err != nil {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("malformed patch document: %s", err.Error())}
	}

	operations := make([]Operation, 0, len(raws))
	for i, raw := range raws {
		operation, err := e.parseOne(raw)
		if err != nil {
			var validationErr *domain.ValidationError
			if errors.As(err, &validationErr) && validationErr.Field == "" {
				validationErr.Field = fmt.Sprintf("/%d", i)
			}
			return nil, err
		}
		if operation != nil {
			operations = append(operations, operation)
		}
	}
	return operations, nil
}

func (e *Engine) parseOne(raw rawOperation) (Operation, error) {
	if raw.Op == "" {
		return nil, &domain.ValidationError{Message: "op is required"}
	}
	kind := Kind(raw.Op)
	if !isKnownKind(kind) || !e.kinds[kind] {
		return nil, &domain.UnsupportedPatchOperationError{Op: raw.Op, Path: raw.Path, Reason: "operation is not supported"}
	}

	path, known, err := e.field(kind, raw.Path)
	if err != nil {
		return nil, err
	}
	from := ""
	if kind == KindCopy || kind == KindMove {
		var fromKnown bool
		from, fromKnown, err = e.field(kind, raw.From)
		if err != nil {
			return nil, err
		}
		known = known && fromKnown
	}
	if !known {
		if e.unknownPath == IgnoreUnknownPath {
			return nil, nil
		}
		return nil, &domain.UnsupportedPatchOperationError{Op: raw.Op, Path: raw.Path, Reason: "path does not name a known field"}
	}

	switch kind {
	case KindReplace, KindAdd, KindTest:
		value, err := stringValue(raw)
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindReplace:
			return Replace{Path: path, Value: value}, nil
		case KindAdd:
			return Add{Path: path, Value: value}, nil
		default:
			return Test{Path: path, Value: value}, nil
		}
	case KindRemove:
		return Remove{Path: path}, nil
	case KindCopy:
		return Copy{From: from, Path: path}, nil
	default:
		return Move{From: from, Path: path}, nil
	}
}

// field resolves a JSON Pointer to a single top-level field. It reports
// known=false for well-formed pointers that address nothing writable, and
// an error for malformed pointers and read-only fields.
func (e *Engine) field(kind Kind, pointer string) (string, bool, error) {
	if pointer == "" {
		return "", false, &domain.ValidationError{Message: fmt.Sprintf("%s requires a path", kind)}
	}
	parsed, err := jsonpointer.New(pointer)
	if err != nil {
		return "", false, &domain.ValidationError{Message: fmt.Sprintf("invalid path %q: %s", pointer, err.Error())}
	}
	tokens := parsed.DecodedTokens()
	if len(tokens) == 0 {
		return "", false, nil
	}
	if readOnlyFields[tokens[0]] {
		return "", false, &domain.UnsupportedPatchOperationError{Op: string(kind), Path: pointer, Reason: "field is read-only"}
	}
	if len(tokens) != 1 || !writableFields[tokens[0]] {
		return "", false, nil
	}
	return "/" + tokens[0], true, nil
}

func stringValue(raw rawOperation) (string, error) {
	value := bytes.TrimSpace(raw.Value)
	if len(value) == 0 {
		return "", &domain.ValidationError{Field: raw.Path, Message: fmt.Sprintf("%s requires a value", raw.Op)}
	}
	if value[0] != '"' {
		return "", &domain.ValidationError{Field: raw.Path, Message: "value must be a string"}
	}
	s := ""
	err := json.Unmarshal(value, &s)
	if err != nil {
		return "", &domain.ValidationError{Field: raw.Path, Message: "value must be a string"}
	}
	return s, nil
}

// Apply runs the operations in order against fields and returns the
// resulting value. The input is never modified; when any operation fails
// nothing of the patch is kept.
func (e *Engine) Apply(fields domain.UserFields, operations []Operation) (domain.UserFields, error) {
	if len(operations) == 0 {
		return fields, nil
	}
	document, err := json.Marshal(fields)
	if err != nil {
		return fields, fmt.Errorf("encode patch document: %w", err)
	}
	raws := make([]rawOperation, 0, len(operations))
	for _, operation := range operations {
		raws = append(raws, operation.encode())
	}
	encoded, err := json.Marshal(raws)
	if err != nil {
		return fields, fmt.Errorf("encode patch operations: %w", err)
	}
	jsonPatch, err := jsonpatch.DecodePatch(encoded)
	if err != nil {
		return fields, fmt.Errorf("decode patch operations: %w", err)
	}
	patched, err := jsonPatch.Apply(document)
	if err != nil {
		return fields, &domain.ValidationError{Message: fmt.Sprintf("patch could not be applied: %s", err.Error())}
	}

	result := domain.UserFields{}
	err = json.Unmarshal(patched, &result)
	if err != nil {
		return fields, &domain.ValidationError{Message: fmt.Sprintf("patched document is invalid: %s", err.Error())}
	}
	result.Name = strings.TrimSpace(result.Name)
	err = result.Validate()
	if err != nil {
		return fields, err
	}
	return result, nil
}

func isKnownKind(kind Kind) bool {
	for _, known := range AllKinds {
		if kind == known {
			return true
		}
	}
	return false
}
