package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validValuesJSON = `{
  "height": 170, "weight": 70.5, "ap_hi": 120, "ap_lo": 80, "age_years": 45,
  "gender": 1, "cholesterol": 1, "gluc": 1, "smoke": 0, "alco": 0, "active": 1
}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"HEALTHFORM_API_ENDPOINT", "HEALTHFORM_API_TIMEOUT", "HEALTHFORM_FORM_SCHEMA_FILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	var stdout bytes.Buffer
	root := newRootCmd(strings.NewReader(stdin), &stdout, io.Discard)
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func predictionServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any) {
	t.Helper()
	payload := map[string]any{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &payload)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &payload
}

func TestSubmit_PrintsPrediction(t *testing.T) {
	srv, payload := predictionServer(t, http.StatusOK, `{"disease_probability":0.23,"recommendation":"Keep moving."}`)
	values := writeFile(t, "patient.json", validValuesJSON)

	out, err := execute(t, "", "submit", "--values", values, "--endpoint", srv.URL+"/predict", "--output", "json")
	require.NoError(t, err)

	assert.Contains(t, out, `"status": "success"`)
	assert.Contains(t, out, `"disease_probability": 0.23`)
	assert.Contains(t, out, "Keep moving.")
	assert.Equal(t, 70.5, (*payload)["weight"])
	assert.Equal(t, float64(45), (*payload)["age_years"])
}

func TestSubmit_YAMLFromStdin(t *testing.T) {
	srv, _ := predictionServer(t, http.StatusOK, `{"disease_probability":0.6,"recommendation":"See a doctor."}`)
	values := `height: 170
weight: 70
ap_hi: 140
ap_lo: 90
age_years: 60
gender: 2
cholesterol: 3
gluc: 1
smoke: 1
alco: 0
active: 0
`

	out, err := execute(t, values, "submit", "--values", "-", "--endpoint", srv.URL+"/predict")
	require.NoError(t, err)
	assert.Equal(t, "Disease probability: 0.6\nSee a doctor.\n", out)
}

func TestSubmit_InvalidValuesFailWithoutRequest(t *testing.T) {
	srv, calls := countingServer(t)

	values := writeFile(t, "patient.json", strings.Replace(validValuesJSON, `"height": 170`, `"height": 300`, 1))

	out, err := execute(t, "", "submit", "--values", values, "--endpoint", srv.URL)
	require.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "Please correct the following fields:")
	assert.Contains(t, out, "  - Height: ")
	assert.Zero(t, *calls)
}

func TestSubmit_ServiceFailure(t *testing.T) {
	srv, _ := predictionServer(t, http.StatusInternalServerError, `{"detail":"model offline"}`)
	values := writeFile(t, "patient.json", validValuesJSON)

	out, err := execute(t, "", "submit", "--values", values, "--endpoint", srv.URL)
	require.ErrorIs(t, err, errReported)
	assert.Equal(t, "Something went wrong while getting your result. Please try again later.\n", out)
	assert.NotContains(t, out, "model offline")
}

func TestSubmit_RequiresValuesFlag(t *testing.T) {
	_, err := execute(t, "", "submit")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"values"`)
}

func TestSchema_Formats(t *testing.T) {
	out, err := execute(t, "", "schema", "--format", "json")
	require.NoError(t, err)

	var doc struct {
		Name   string `json:"name"`
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "cardio", doc.Name)
	assert.Len(t, doc.Fields, 11)

	out, err = execute(t, "", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, "name: cardio")
	assert.Contains(t, out, "- name: ap_hi")

	_, err = execute(t, "", "schema", "--format", "toml")
	require.Error(t, err)
}

func TestBootstrap_SchemaFileFromConfig(t *testing.T) {
	schema := writeFile(t, "mini.yaml", `name: mini
title: Mini
fields:
  - name: height
    label: Height
    kind: numeric
    min: 100
    max: 200
`)
	config := writeFile(t, "healthform.yaml", "form:\n  schema_file: "+schema+"\n")

	out, err := execute(t, "", "schema", "--config", config, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "mini"`)
}

func countingServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSubmit_OutputResolvedThroughRegistry(t *testing.T) {
	srv, _ := predictionServer(t, http.StatusOK, `{"disease_probability":0.23,"recommendation":"**Keep** moving."}`)
	values := writeFile(t, "patient.json", validValuesJSON)

	out, err := execute(t, "", "submit", "--values", values, "--endpoint", srv.URL, "--output", "html")
	require.NoError(t, err)
	assert.Contains(t, out, `<span class="healthform__probability">0.23</span>`)
	assert.Contains(t, out, "<strong>Keep</strong>")
}

func TestSubmit_UnknownOutputRejectedBeforeRequest(t *testing.T) {
	srv, calls := countingServer(t)
	values := writeFile(t, "patient.json", validValuesJSON)

	out, err := execute(t, "", "submit", "--values", values, "--endpoint", srv.URL, "--output", "xml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
	assert.Contains(t, err.Error(), `unknown output "xml"`)
	assert.Contains(t, err.Error(), "[html json pretty]")
	assert.Empty(t, out)
	assert.Zero(t, *calls)
}

func TestSubmit_SchemaOutsideContractFailsAtStartup(t *testing.T) {
	srv, calls := countingServer(t)
	schema := writeFile(t, "mini.yaml", `name: mini
title: Mini
fields:
  - name: height
    label: Height
    kind: numeric
    integer: true
    min: 100
    max: 200
`)
	config := writeFile(t, "healthform.yaml", "form:\n  schema_file: "+schema+"\n")
	values := writeFile(t, "patient.json", `{"height": 150}`)

	_, err := execute(t, "", "submit", "--config", config, "--values", values, "--endpoint", srv.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errReported)
	assert.Contains(t, err.Error(), "form cannot be submitted")
	assert.Contains(t, err.Error(), `schema "mini" does not match`)
	assert.Contains(t, err.Error(), `contract requires field "weight"`)
	assert.Zero(t, *calls)
}
