package analysis

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"demand-scout/internal/llm"
	"demand-scout/internal/scoring"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed opportunity_output.schema.json
var outputSchemaJSON string

// Output is the validated structured result of one model invocation
type Output struct {
	IsOpportunity bool                `json:"is_opportunity"`
	Confidence    float64             `json:"confidence"`
	Reasons       []string            `json:"reasons,omitempty"`
	Opportunity   *OpportunityPayload `json:"opportunity,omitempty"`
}

// OpportunityPayload is the opportunity record as the model produced it.
// Sub-scores and tags are still untrusted at this point; the pipeline clamps
// and allow-lists them before anything is persisted.
type OpportunityPayload struct {
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	ProposedSolution string             `json:"proposed_solution"`
	Niche            string             `json:"niche"`
	Scores           scoring.SubScores  `json:"scores"`
	Justifications   map[string]string  `json:"justifications,omitempty"`
	Tags             []string           `json:"tags,omitempty"`
	MarketValidation *ValidationPayload `json:"market_validation,omitempty"`
}

// ValidationPayload is the model's market-validation sub-record
type ValidationPayload struct {
	EngagementTier       string `json:"engagement_tier"`
	ProblemFrequency     string `json:"problem_frequency"`
	PaymentWillingness   string `json:"payment_willingness"`
	CompetitiveIntensity string `json:"competitive_intensity"`
	ValidationTier       string `json:"validation_tier"`
}

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("opportunity_output.schema.json", strings.NewReader(outputSchemaJSON)); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile("opportunity_output.schema.json")
	})
	return compiledSchema, compiledSchemaErr
}

// ValidateOutput checks one raw model response against the output schema and
// unmarshals it. A schema violation is reported as fatal: retrying the same
// input against a misconfigured contract will not help.
func ValidateOutput(raw json.RawMessage) (*Output, error) {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, &llm.ModelError{Kind: llm.KindSchemaViolation, Message: err.Error()}
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load output schema: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, &llm.ModelError{Kind: llm.KindSchemaViolation, Message: err.Error()}
	}

	var out Output
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &llm.ModelError{Kind: llm.KindSchemaViolation, Message: err.Error()}
	}
	return &out, nil
}

// batchEnvelope is the expected shape of a batch response
type batchEnvelope struct {
	Results []json.RawMessage `json:"results"`
}

// SplitBatchOutput extracts the per-item raw entries from a batch response.
// Length and order handling is the caller's job; this only peels the
// envelope.
func SplitBatchOutput(raw json.RawMessage) ([]json.RawMessage, error) {
	var envelope batchEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &llm.ModelError{Kind: llm.KindSchemaViolation, Message: fmt.Sprintf("batch envelope: %v", err)}
	}
	if envelope.Results == nil {
		return nil, &llm.ModelError{Kind: llm.KindSchemaViolation, Message: "batch response missing results array"}
	}
	return envelope.Results, nil
}

func decodeStrictJSON(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("model output is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("JSON contains trailing content")
	}
	return value, nil
}
