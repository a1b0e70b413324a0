package submission

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-healthform/pkg/model"
)

//go:embed openapi/predict.yaml
var embeddedContract []byte

// DefaultOperationID names the prediction operation in the bundled contract.
const DefaultOperationID = "predictDisease"

// Contract holds the request and response schemas of the prediction
// operation, taken from an OpenAPI 3 document.
type Contract struct {
	operationID string
	method      string
	request     *openapi3.Schema
	response    *openapi3.Schema
}

// LoadContract parses an OpenAPI document and extracts operationID's JSON
// request body and 200 response schemas.
func LoadContract(ctx context.Context, data []byte, operationID string) (*Contract, error) {
	if len(data) == 0 {
		return nil, errors.New("submission: contract document is empty")
	}
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("submission: load contract: %w", err)
	}
	if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("submission: validate contract: %w", err)
	}
	if doc.Paths == nil {
		return nil, errors.New("submission: contract declares no paths")
	}

	for _, item := range doc.Paths.Map() {
		if item == nil {
			continue
		}
		for method, op := range item.Operations() {
			if op == nil || op.OperationID != operationID {
				continue
			}
			return newContract(operationID, method, op)
		}
	}
	return nil, fmt.Errorf("submission: operation %q not found in contract", operationID)
}

func newContract(operationID, method string, op *openapi3.Operation) (*Contract, error) {
	c := &Contract{operationID: operationID, method: method}

	if op.RequestBody != nil && op.RequestBody.Value != nil {
		if media := op.RequestBody.Value.Content.Get("application/json"); media != nil && media.Schema != nil {
			c.request = media.Schema.Value
		}
	}
	if c.request == nil {
		return nil, fmt.Errorf("submission: operation %q has no JSON request schema", operationID)
	}

	if op.Responses != nil {
		if ref := op.Responses.Status(http.StatusOK); ref != nil && ref.Value != nil {
			if media := ref.Value.Content.Get("application/json"); media != nil && media.Schema != nil {
				c.response = media.Schema.Value
			}
		}
	}
	if c.response == nil {
		return nil, fmt.Errorf("submission: operation %q has no JSON 200 response schema", operationID)
	}
	return c, nil
}

var (
	defaultContractOnce sync.Once
	defaultContract     *Contract
	defaultContractErr  error
)

// DefaultContract returns the bundled prediction contract.
func DefaultContract() (*Contract, error) {
	defaultContractOnce.Do(func() {
		defaultContract, defaultContractErr = LoadContract(context.Background(), embeddedContract, DefaultOperationID)
	})
	return defaultContract, defaultContractErr
}

// Method is the HTTP method declared for the operation.
func (c *Contract) Method() string { return c.method }

// CheckSchema reports every way a form built from schema could produce a
// request the contract rejects: missing required properties, undeclared
// fields, integer mismatches, bounds or option values outside the contract.
func (c *Contract) CheckSchema(schema *model.Schema) error {
	if schema == nil {
		return errors.New("submission: schema is nil")
	}

	var problems []error
	for _, name := range c.request.Required {
		if _, ok := schema.Field(name); !ok {
			problems = append(problems, fmt.Errorf("contract requires field %q", name))
		}
	}
	for _, field := range schema.Fields() {
		ref := c.request.Properties[field.Name]
		if ref == nil || ref.Value == nil {
			problems = append(problems, fmt.Errorf("field %q is not declared by the contract", field.Name))
			continue
		}
		prop := ref.Value

		switch field.Kind {
		case model.FieldKindNumeric:
			if isInteger(prop.Type) && !field.Integer {
				problems = append(problems, fmt.Errorf("field %q must be an integer field", field.Name))
			}
			for _, bound := range []float64{field.Min, field.Max} {
				if err := prop.VisitJSON(bound); err != nil {
					problems = append(problems, fmt.Errorf("field %q bound %v: %w", field.Name, bound, err))
				}
			}
		case model.FieldKindEnum:
			for _, opt := range field.Options {
				if err := prop.VisitJSON(float64(opt.Value)); err != nil {
					problems = append(problems, fmt.Errorf("field %q option %q: %w", field.Name, opt.Code, err))
				}
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("submission: schema %q does not match the %s contract: %w",
			schema.Name(), c.operationID, errors.Join(problems...))
	}
	return nil
}

func isInteger(types *openapi3.Types) bool {
	if types == nil {
		return false
	}
	return slices.Contains(types.Slice(), openapi3.TypeInteger)
}

// ValidateRequest checks an outgoing payload against the request schema.
func (c *Contract) ValidateRequest(payload Payload) error {
	generic, err := toGeneric(payload)
	if err != nil {
		return err
	}
	if err := c.request.VisitJSON(generic); err != nil {
		return fmt.Errorf("request does not match contract: %w", err)
	}
	return nil
}

// ValidateResponse checks a decoded JSON body against the response schema.
func (c *Contract) ValidateResponse(body any) error {
	if err := c.response.VisitJSON(body); err != nil {
		return fmt.Errorf("response does not match contract: %w", err)
	}
	return nil
}

// toGeneric turns typed Go values into the float64/map[string]any shapes the
// schema visitor expects.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}
