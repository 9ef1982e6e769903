// Command importer validates asset CSV files locally and uploads them to the
// maintenance API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/ukydev/asset-maintenance/internal/csvimport"
	"github.com/ukydev/asset-maintenance/internal/importclient"
	"github.com/ukydev/asset-maintenance/internal/logging"
	"github.com/ukydev/asset-maintenance/internal/models"
)

var errImportBlocked = errors.New("file has rows with errors; fix them before uploading")

// logger carries the correlation ID of the current invocation
var logger = log.NewEntry(log.StandardLogger())

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "importer",
		Short:         "Validate and upload bulk asset CSV files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(opts.logLevel, opts.logFormat)
			log.SetOutput(cmd.ErrOrStderr())
			logger = log.WithField("correlation_id", uuid.NewString())
			logger.WithField("command", cmd.Name()).Debug("Starting")
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", envOr("LOG_FORMAT", "text"), "Log format: text or json")

	cmd.AddCommand(newTemplateCmd(), newValidateCmd(), newUploadCmd())
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write a CSV template with every supported column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := csvimport.Template(csvimport.AssetSchema())
			if err != nil {
				return err
			}
			if output == "" {
				_, err = io.WriteString(cmd.OutOrStdout(), template)
				return err
			}
			if err := os.WriteFile(output, []byte(template), 0o644); err != nil {
				return fmt.Errorf("failed to write template: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an asset CSV file without uploading it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, result, err := loadAndValidate(args[0])
			if err != nil {
				return err
			}
			if err := printReport(cmd.OutOrStdout(), result, asJSON); err != nil {
				return err
			}
			if !csvimport.CanImport(result) {
				return errImportBlocked
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}

type uploadOptions struct {
	apiURL  string
	token   string
	timeout time.Duration
}

func newUploadCmd() *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Validate an asset CSV file and import it through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, result, err := loadAndValidate(args[0])
			if err != nil {
				return err
			}
			if !csvimport.CanImport(result) {
				if err := printReport(cmd.OutOrStdout(), result, false); err != nil {
					return err
				}
				return errImportBlocked
			}

			client := importclient.New(opts.apiURL, opts.token)
			client.HTTPClient.Timeout = opts.timeout
			imported := client.Import(cmd.Context(), csvimport.ToAssets(parsed))
			printImport(cmd.OutOrStdout(), imported)
			if imported.Error != "" {
				return errors.New(imported.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.apiURL, "api-url", envOr("API_BASE_URL", "http://localhost:8080"), "Base URL of the maintenance API")
	cmd.Flags().StringVar(&opts.token, "token", os.Getenv("IMPORT_TOKEN"), "Bearer token for the API")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", time.Minute, "Request timeout")
	return cmd
}

func loadAndValidate(path string) (*csvimport.Parsed, *models.ValidationResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if info.Size() > csvimport.MaxFileSize {
		return nil, nil, fmt.Errorf("%s: %w", path, csvimport.ErrFileTooLarge)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	schema := csvimport.AssetSchema()
	parsed, err := csvimport.Parse(string(data), schema)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	result := csvimport.Validate(parsed, schema, time.Now())
	logger.WithFields(log.Fields{
		"file":     path,
		"rows":     result.Summary.TotalRows,
		"errors":   result.Summary.ErrorRows,
		"warnings": result.Summary.WarningRows,
	}).Info("Validated file")
	return parsed, result, nil
}

func printReport(w io.Writer, result *models.ValidationResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	s := result.Summary
	fmt.Fprintf(w, "Rows: %d  valid: %d  warnings: %d  errors: %d\n", s.TotalRows, s.ValidRows, s.WarningRows, s.ErrorRows)
	for _, field := range result.MissingRequiredFields {
		fmt.Fprintf(w, "Missing required column: %s\n", field)
	}
	for _, d := range result.DuplicateSerialNumbers {
		fmt.Fprintf(w, "Duplicate serial %s on rows %v\n", d.SerialNumber, d.Rows)
	}
	for _, issue := range result.RowIssues {
		for _, msg := range issue.Issues {
			fmt.Fprintf(w, "row %d (%s) [%s]: %s\n", issue.RowNumber, issue.AssetName, issue.Severity, msg)
		}
	}
	return nil
}

func printImport(w io.Writer, result models.ImportResult) {
	if result.Error != "" {
		fmt.Fprintf(w, "Import failed: %s\n", result.Error)
		return
	}
	fmt.Fprintf(w, "Imported %d of %d assets (batch %s)\n", result.Imported, result.Total, result.BatchID)
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "row %d: %s\n", warning.Row, warning.Message)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
