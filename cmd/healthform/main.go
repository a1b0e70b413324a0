package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// errReported marks failures whose details were already printed.
var errReported = errors.New("healthform: failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "healthform",
		Short:         "Collect health metrics and request a cardiovascular risk prediction",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (yaml); defaults to ./healthform.yaml when present")
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file loaded before reading the environment")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console or json")
	pf.String("endpoint", "", "prediction API endpoint URL")
	pf.Duration("timeout", 0, "prediction request timeout (0 disables)")

	root.AddCommand(
		newPromptCmd(flags),
		newServeCmd(flags),
		newSubmitCmd(flags),
		newSchemaCmd(flags),
	)
	return root
}
