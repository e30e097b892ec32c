// Package ai runs the three review analysis flows against a text generation
// model. Every flow renders a fixed prompt, asks the model for JSON matching
// the flow's output schema and rejects anything that does not conform.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAIUnavailable is returned by every flow when no provider is configured
	ErrAIUnavailable = errors.New("AI provider is not configured")
	// ErrInvalidOutput wraps model output that is not valid JSON or does not
	// match the output schema
	ErrInvalidOutput = errors.New("model returned invalid output")
	// ErrGeneration wraps transport and provider failures
	ErrGeneration = errors.New("model call failed")
)

// InputError reports a flow input that failed validation
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func inputErrorf(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// Schema is the subset of JSON Schema the flows need to describe their output
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int64             `json:"minItems,omitempty"`
	MaxItems    *int64             `json:"maxItems,omitempty"`
}

// Generator produces a JSON document for a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *Schema) (string, error)
	Name() string
}

// Flows runs the review analysis flows on a generator
type Flows struct {
	gen     Generator
	timeout time.Duration
	metrics *Metrics
}

// NewFlows creates the flow runner. A nil generator makes every flow fail
// with ErrAIUnavailable. metrics may be nil.
func NewFlows(gen Generator, timeout time.Duration, metrics *Metrics) *Flows {
	return &Flows{gen: gen, timeout: timeout, metrics: metrics}
}

// Enabled reports whether a generator is configured
func (f *Flows) Enabled() bool {
	return f.gen != nil
}

// run calls the generator with the flow timeout, decodes the reply into out
// and applies check to the decoded value
func (f *Flows) run(ctx context.Context, flow, prompt string, schema *Schema, out any, check func() error) error {
	if f.gen == nil {
		f.metrics.observe(flow, outcomeUnavailable, 0)
		return ErrAIUnavailable
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := f.gen.Generate(ctx, prompt, schema)
	elapsed := time.Since(start)
	if err != nil {
		f.metrics.observe(flow, outcomeError, elapsed)
		return fmt.Errorf("%s: %w: %w", flow, ErrGeneration, err)
	}

	if err := decodeStrict(raw, out); err != nil {
		f.metrics.observe(flow, outcomeInvalid, elapsed)
		return fmt.Errorf("%s: %w: %v", flow, ErrInvalidOutput, err)
	}
	if err := check(); err != nil {
		f.metrics.observe(flow, outcomeInvalid, elapsed)
		return fmt.Errorf("%s: %w: %v", flow, ErrInvalidOutput, err)
	}

	f.metrics.observe(flow, outcomeOK, elapsed)
	return nil
}

// decodeStrict parses a JSON object, tolerating a surrounding markdown code fence
func decodeStrict(raw string, out any) error {
	raw = strings.TrimSpace(raw)
	if rest, ok := strings.CutPrefix(raw, "```"); ok {
		rest = strings.TrimPrefix(rest, "json")
		raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}
	if raw == "" {
		return errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	if err := dec.Decode(out); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON object")
	}
	return nil
}

func nonEmpty(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

func int64Ptr(v int64) *int64 { return &v }
