// Package main provides the vecfield CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	// Load .env file if present (cloud credentials and endpoints)
	_ = godotenv.Load()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintf(stderr, "error: %s\n", ee.msg)
			}
			return ee.code
		}
		fmt.Fprintf(stderr, "error: %s\n", err)
		return ExitError
	}
	return ExitSuccess
}

type rootFlags struct {
	settingsPath string
	logLevel     string
	logFormat    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	root := &cobra.Command{
		Use:   "vecfield",
		Short: "Validate vector field mappings and parse vector documents",
		Long: `vecfield resolves "vector" field mappings into validated field variants
and parses per-document vector values against them.

All commands output JSON.

Environment Variables:
  AWS_REGION, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY  S3 and DynamoDB model registries
  MINIO_ACCESS_KEY, MINIO_SECRET_KEY                    MinIO model registry`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&flags.settingsPath, "settings", "", "Index settings YAML file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format (text|json)")

	root.AddCommand(
		newValidateCmd(&flags),
		newParseCmd(&flags),
		newServeCmd(&flags),
		newModelsCmd(&flags),
	)
	return root
}
