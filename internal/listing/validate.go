package listing

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// Validate enforces the fields an operator must fill before a job is saved.
// Dates, URLs and MasterData membership are not checked.
func Validate(job Job) error {
	switch {
	case strings.TrimSpace(job.Board) == "":
		return &ValidationError{Msg: "Please select a Recruitment Board"}
	case strings.TrimSpace(job.Location) == "":
		return &ValidationError{Msg: "Please select a Job Location"}
	case strings.TrimSpace(job.PositionName) == "":
		return &ValidationError{Msg: "Position name is required"}
	}
	return nil
}

//go:embed job.schema.json
var jobSchemaJSON string

var (
	jobSchemaOnce sync.Once
	jobSchema     *gojsonschema.Schema
	jobSchemaErr  error
)

func loadJobSchema() (*gojsonschema.Schema, error) {
	jobSchemaOnce.Do(func() {
		jobSchema, jobSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(jobSchemaJSON))
	})
	return jobSchema, jobSchemaErr
}

// ValidatePayload checks a raw JSON job document against the job schema before
// it is decoded. Schema violations are reported as a *ValidationError.
func ValidatePayload(raw []byte) error {
	schema, err := loadJobSchema()
	if err != nil {
		return fmt.Errorf("load job schema: %w", err)
	}
	return checkResult(schema.Validate(gojsonschema.NewBytesLoader(raw)))
}

// ValidateDocument is ValidatePayload for an already decoded document, such as
// a job read from a YAML seed file.
func ValidateDocument(doc any) error {
	schema, err := loadJobSchema()
	if err != nil {
		return fmt.Errorf("load job schema: %w", err)
	}
	return checkResult(schema.Validate(gojsonschema.NewGoLoader(doc)))
}

func checkResult(res *gojsonschema.Result, err error) error {
	if err != nil {
		return &ValidationError{Msg: fmt.Sprintf("invalid job document: %v", err)}
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return &ValidationError{Msg: "schema validation failed: " + strings.Join(msgs, "; ")}
}
