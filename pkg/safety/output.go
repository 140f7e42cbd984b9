package safety

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrUnparseable means neither the raw reply nor a fenced block held JSON.
	ErrUnparseable = errors.New("could not parse JSON")
	// ErrInvalidEvaluation is wrapped by every SchemaError.
	ErrInvalidEvaluation = errors.New("evaluation failed schema validation")
)

// SchemaError describes why a parsed reply was rejected. Detail names schema
// locations and is meant for logs, not end users.
type SchemaError struct {
	Schema string
	Detail string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidEvaluation.Error(), e.Schema, e.Detail)
}

func (e *SchemaError) Unwrap() error {
	return ErrInvalidEvaluation
}

//go:embed schemas/*.json
var schemaFS embed.FS

const schemaBaseURL = "https://schemas.ielts-prep.local/"

// Schema pairs a compiled JSON Schema with the Go type a valid document
// decodes into. Properties the type does not declare are dropped on decode.
type Schema[T any] struct {
	name     string
	compiled *jsonschema.Schema
}

// Name returns the schema's short name.
func (s *Schema[T]) Name() string {
	return s.name
}

// CompileSchema compiles a draft 2020-12 schema document.
func CompileSchema[T any](name string, document []byte) (*Schema[T], error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	url := schemaBaseURL + name + ".json"
	if err := compiler.AddResource(url, bytes.NewReader(document)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema[T]{name: name, compiled: compiled}, nil
}

func mustEmbeddedSchema[T any](name string) *Schema[T] {
	document, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		panic(err)
	}
	schema, err := CompileSchema[T](name, document)
	if err != nil {
		panic(err)
	}
	return schema
}

var (
	// WritingSchema validates writing evaluations.
	WritingSchema = mustEmbeddedSchema[WritingEvaluation]("writing_evaluation")
	// SpeakingSchema validates speaking evaluations.
	SpeakingSchema = mustEmbeddedSchema[SpeakingEvaluation]("speaking_evaluation")
)

var fencedBlock = regexp.MustCompile("(?s)```[ \t]*(?:json|JSON)?[ \t]*\r?\n?(.*?)```")

// ParseAndValidate turns a raw model reply into a validated T. It first parses
// the whole reply, then the first fenced code block that holds JSON. A reply
// is either fully valid or rejected; partial data is never returned.
func ParseAndValidate[T any](raw string, schema *Schema[T]) (T, error) {
	var zero T

	document, ok := extractJSON(raw)
	if !ok {
		outputRejections.WithLabelValues(schema.name, "parse").Inc()
		return zero, ErrUnparseable
	}

	if err := schema.compiled.Validate(document); err != nil {
		outputRejections.WithLabelValues(schema.name, "schema").Inc()
		return zero, &SchemaError{Schema: schema.name, Detail: validationDetail(err)}
	}

	// encoding/json matches keys case-insensitively, so only the exact
	// property names the schema checked may reach the decoder.
	validated, err := json.Marshal(pruneDocument(document, schema.compiled))
	if err != nil {
		outputRejections.WithLabelValues(schema.name, "decode").Inc()
		return zero, &SchemaError{Schema: schema.name, Detail: err.Error()}
	}

	var out T
	if err := json.Unmarshal(validated, &out); err != nil {
		outputRejections.WithLabelValues(schema.name, "decode").Inc()
		return zero, &SchemaError{Schema: schema.name, Detail: err.Error()}
	}
	return out, nil
}

// ParseWritingEvaluation validates a raw reply against WritingSchema.
func ParseWritingEvaluation(raw string) (WritingEvaluation, error) {
	return ParseAndValidate(raw, WritingSchema)
}

// ParseSpeakingEvaluation validates a raw reply against SpeakingSchema.
func ParseSpeakingEvaluation(raw string) (SpeakingEvaluation, error) {
	return ParseAndValidate(raw, SpeakingSchema)
}

func extractJSON(raw string) (interface{}, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}
	if document, err := decodeDocument([]byte(trimmed)); err == nil {
		return document, true
	}
	for _, match := range fencedBlock.FindAllStringSubmatch(trimmed, -1) {
		if document, err := decodeDocument([]byte(strings.TrimSpace(match[1]))); err == nil {
			return document, true
		}
	}
	return nil, false
}

// pruneDocument keeps only the object members whose names exactly match a
// declared property, recursing through properties and array items. Objects
// whose schema declares no properties are kept whole.
func pruneDocument(document interface{}, schema *jsonschema.Schema) interface{} {
	for schema != nil && schema.Properties == nil && schema.Items2020 == nil && schema.Ref != nil {
		schema = schema.Ref
	}
	if schema == nil {
		return document
	}

	switch value := document.(type) {
	case map[string]interface{}:
		if schema.Properties == nil {
			return value
		}
		pruned := make(map[string]interface{}, len(schema.Properties))
		for key, member := range value {
			if property, ok := schema.Properties[key]; ok {
				pruned[key] = pruneDocument(member, property)
			}
		}
		return pruned
	case []interface{}:
		if schema.Items2020 == nil {
			return value
		}
		pruned := make([]interface{}, len(value))
		for i, item := range value {
			pruned[i] = pruneDocument(item, schema.Items2020)
		}
		return pruned
	}
	return document
}

func decodeDocument(data []byte) (interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return document, nil
}

func validationDetail(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	location := verr.InstanceLocation
	if location == "" {
		location = "/"
	}
	return location + ": " + verr.Message
}
