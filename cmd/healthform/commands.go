package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-healthform/internal/metrics"
	"github.com/goliatone/go-healthform/internal/server"
	"github.com/goliatone/go-healthform/pkg/controller"
	"github.com/goliatone/go-healthform/pkg/model"
	"github.com/goliatone/go-healthform/pkg/render"
	"github.com/goliatone/go-healthform/pkg/renderers/tui"
	"github.com/goliatone/go-healthform/pkg/submission"
)

func newPromptCmd(flags *rootFlags) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in the form interactively and print the prediction",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			presenter, err := presenterFor(a.presenters, output)
			if err != nil {
				return err
			}
			client, err := a.client(nil)
			if err != nil {
				return err
			}
			form := controller.New(a.schema, client, controller.WithLogger(a.logger.Named("form")))
			session, err := tui.New(form,
				tui.WithPromptDriver(tui.NewSurveyDriver(cmd.OutOrStdout())),
				tui.WithPresenter(presenter),
				tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
				tui.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}

			final, err := session.Run(cmd.Context())
			if err != nil {
				return err
			}
			if final.Status != controller.StatusSuccess {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&output, "output", string(tui.OutputFormatPrettyText), "result format: pretty, json or html")
	return cmd
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the form over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			page, err := presenterFor(a.presenters, "html")
			if err != nil {
				return err
			}
			pages, ok := page.(server.Presenter)
			if !ok {
				return fmt.Errorf("healthform: presenter %q cannot serve pages", page.Name())
			}

			var (
				options = []server.Option{
					server.WithLogger(a.logger.Named("server")),
					server.WithSessionTTL(a.cfg.Server.SessionTTL),
					server.WithPresenter(pages),
				}
				observer submission.Observer
			)
			if a.cfg.Metrics.Enabled {
				registry := prometheus.NewRegistry()
				registry.MustRegister(
					collectors.NewGoCollector(),
					collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
				)
				m := metrics.New(registry)
				observer = m
				options = append(options, server.WithMetrics(m, registry))
			}

			client, err := a.client(observer)
			if err != nil {
				return err
			}

			srv, err := server.New(a.schema, client, options...)
			if err != nil {
				return err
			}
			a.logger.Info("prediction endpoint", zap.String("endpoint", client.Endpoint()))
			return srv.Run(cmd.Context(), a.cfg.Server.Addr, a.cfg.Server.ShutdownTimeout)
		},
	}
	cmd.Flags().String("addr", "", "listen address, e.g. :8080")
	return cmd
}

func newSubmitCmd(flags *rootFlags) *cobra.Command {
	var (
		valuesFile string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Validate a values file and request a prediction without prompting",
		Example: `  healthform submit --values patient.json
  cat patient.yaml | healthform submit --values - --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			presenter, err := presenterFor(a.presenters, output)
			if err != nil {
				return err
			}
			values, err := readValues(cmd.InOrStdin(), valuesFile)
			if err != nil {
				return err
			}
			client, err := a.client(nil)
			if err != nil {
				return err
			}

			form := controller.New(a.schema, client,
				controller.WithLogger(a.logger.Named("form")),
				controller.WithValues(values),
			)
			form.Submit(cmd.Context())
			final, err := form.Wait(cmd.Context())
			if err != nil {
				return err
			}

			out, err := presenter.Present(cmd.Context(), a.schema, final, render.Options{})
			if err != nil {
				return err
			}
			if _, err := cmd.OutOrStdout().Write(out); err != nil {
				return err
			}
			if final.Status == controller.StatusError {
				a.logger.Warn("submission failed", zap.Error(final.Failure))
			}
			if final.Status != controller.StatusSuccess {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&valuesFile, "values", "", "JSON or YAML file with field values (- for stdin)")
	cmd.Flags().StringVar(&output, "output", string(tui.OutputFormatPrettyText), "result format: pretty, json or html")
	_ = cmd.MarkFlagRequired("values")
	return cmd
}

func newSchemaCmd(flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the form schema in use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd, flags)
			if err != nil {
				return err
			}
			defer a.close()

			var out []byte
			switch strings.ToLower(format) {
			case "json":
				out, err = json.MarshalIndent(a.schema, "", "  ")
				out = append(out, '\n')
			case "yaml", "":
				out, err = yaml.Marshal(a.schema)
			default:
				return fmt.Errorf("healthform: unknown schema format %q", format)
			}
			if err != nil {
				return fmt.Errorf("healthform: encode schema: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

// readValues loads raw field values. JSON numbers stay json.Number so the
// validator sees exactly what was written.
func readValues(stdin io.Reader, path string) (model.FormValues, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("healthform: read values: %w", err)
	}

	values := model.FormValues{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("healthform: decode values: %w", err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&values); err != nil {
			if path != "-" {
				return nil, fmt.Errorf("healthform: decode values: %w", err)
			}
			values = model.FormValues{}
			if yerr := yaml.Unmarshal(data, &values); yerr != nil {
				return nil, fmt.Errorf("healthform: decode values: %w", err)
			}
		}
	}
	return values, nil
}
