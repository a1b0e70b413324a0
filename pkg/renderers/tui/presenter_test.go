package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
	"github.com/goliatone/go-healthform/pkg/validation"
)

func TestTextPresenter_Pretty(t *testing.T) {
	p := NewTextPresenter(OutputFormatPrettyText, Theme{ErrorPrefix: "! "})
	if p.Name() != "pretty" || !strings.HasPrefix(p.ContentType(), "text/plain") {
		t.Fatalf("unexpected identity %s %s", p.Name(), p.ContentType())
	}

	cases := []struct {
		name  string
		state controller.State
		want  string
	}{
		{
			name: "success",
			state: controller.State{
				Status: controller.StatusSuccess,
				Result: &model.SubmissionResult{DiseaseProbability: 0.23, Recommendation: "Rest more."},
			},
			want: "Disease probability: 0.23\nRest more.\n",
		},
		{
			name:  "error",
			state: controller.State{Status: controller.StatusError, Failure: errors.New("secret cause")},
			want:  "! " + render.FailureMessage + "\n",
		},
		{
			name:  "pending",
			state: controller.State{Status: controller.StatusPending},
			want:  render.PendingMessage + "\n",
		},
		{
			name: "invalid",
			state: controller.State{
				Status: controller.StatusIdle,
				Errors: validation.Errors{"weight": {Field: "weight", Kind: validation.KindRequired, Message: "Weight is required"}},
			},
			want: "! Please correct the following fields:\n  - Weight: Weight is required\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := p.Present(context.Background(), model.Default(), tc.state, render.Options{})
			if err != nil {
				t.Fatalf("present: %v", err)
			}
			if diff := cmp.Diff(tc.want, string(out)); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextPresenter_JSON(t *testing.T) {
	p := NewTextPresenter(OutputFormatJSON, Theme{})
	if p.ContentType() != "application/json" {
		t.Fatalf("content type = %s", p.ContentType())
	}

	out, err := p.Present(context.Background(), model.Default(), controller.State{
		Status: controller.StatusIdle,
		Errors: validation.Errors{"ap_hi": {Field: "ap_hi", Kind: validation.KindFormat, Message: "Systolic blood pressure must be a number"}},
	}, render.Options{})
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]any{
		"status": "idle",
		"errors": map[string]any{"ap_hi": "Systolic blood pressure must be a number"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("json mismatch (-want +got):\n%s", diff)
	}

	out, err = p.Present(context.Background(), model.Default(), controller.State{
		Status: controller.StatusSuccess,
		Result: &model.SubmissionResult{DiseaseProbability: 0.23, Recommendation: "ok"},
	}, render.Options{})
	if err != nil {
		t.Fatalf("present: %v", err)
	}
	if !strings.Contains(string(out), `"disease_probability": 0.23`) {
		t.Fatalf("unexpected json:\n%s", out)
	}
}

func TestNewTextPresenter_UnknownFormatFallsBack(t *testing.T) {
	if got := NewTextPresenter("yaml", Theme{}).Name(); got != "pretty" {
		t.Fatalf("name = %s", got)
	}
}
