package submission_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/submission"
	"github.com/goliatone/go-healthform/pkg/validation"
)

func TestBuildPayload_ConvertsEnumCodes(t *testing.T) {
	payload, err := submission.BuildPayload(referenceRecord(t))
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}

	want := submission.Payload{
		"height":      int64(170),
		"weight":      70.0,
		"ap_hi":       int64(120),
		"ap_lo":       int64(80),
		"age_years":   int64(45),
		"gender":      1,
		"cholesterol": 1,
		"gluc":        1,
		"smoke":       0,
		"alco":        0,
		"active":      1,
	}
	if diff := cmp.Diff(want, payload); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildPayload_CustomMapping(t *testing.T) {
	schema, err := model.LoadSchema([]byte(`
fields:
  - name: level
    kind: enum
    options:
      - {code: low, value: 10}
      - {code: high, value: 20}
`))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	record, errs := validation.Validate(schema, model.FormValues{"level": "high"})
	if len(errs) != 0 {
		t.Fatalf("validate: %v", errs)
	}
	payload, err := submission.BuildPayload(record)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if payload["level"] != 20 {
		t.Fatalf("level = %v", payload["level"])
	}
}

func TestBuildPayload_NilRecord(t *testing.T) {
	if _, err := submission.BuildPayload(nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultContract(t *testing.T) {
	contract, err := submission.DefaultContract()
	if err != nil {
		t.Fatalf("default contract: %v", err)
	}
	if contract.Method() != http.MethodPost {
		t.Fatalf("unexpected method %s", contract.Method())
	}

	payload, err := submission.BuildPayload(referenceRecord(t))
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if err := contract.ValidateRequest(payload); err != nil {
		t.Fatalf("reference payload rejected: %v", err)
	}

	delete(payload, "gluc")
	if err := contract.ValidateRequest(payload); err == nil {
		t.Fatalf("payload missing gluc accepted")
	}
}

func TestLoadContract_UnknownOperation(t *testing.T) {
	doc := []byte(`
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /x:
    get:
      operationId: other
      responses:
        '200': {description: ok}
`)
	if _, err := submission.LoadContract(context.Background(), doc, "predictDisease"); err == nil {
		t.Fatalf("expected error for missing operation")
	}
}

func TestContract_CheckSchema(t *testing.T) {
	contract, err := submission.DefaultContract()
	if err != nil {
		t.Fatalf("default contract: %v", err)
	}
	cardio := string(model.EmbeddedSchema())

	cases := []struct {
		name string
		doc  string
		want []string
	}{
		{name: "embedded schema", doc: cardio},
		{
			name: "other field set",
			doc: `name: mini
title: Mini
fields:
  - {name: height, label: Height, kind: numeric, integer: true, min: 100, max: 200}
  - {name: pulse, label: Pulse, kind: numeric, integer: true, min: 40, max: 200}
`,
			want: []string{`contract requires field "weight"`, `field "pulse" is not declared by the contract`},
		},
		{
			name: "option value outside contract",
			doc:  strings.Replace(cardio, `{ code: "2", value: 2, label: Male }`, `{ code: "2", value: 3, label: Male }`, 1),
			want: []string{`field "gender" option "2"`},
		},
		{
			name: "decimal input for integer property",
			doc:  strings.Replace(cardio, "integer: true\n    min: 130", "min: 130", 1),
			want: []string{`field "height" must be an integer field`},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			schema, err := model.LoadSchema([]byte(tc.doc))
			if err != nil {
				t.Fatalf("load schema: %v", err)
			}
			err = contract.CheckSchema(schema)
			if len(tc.want) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected mismatch error")
			}
			for _, want := range tc.want {
				if !strings.Contains(err.Error(), want) {
					t.Fatalf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}
