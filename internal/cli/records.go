package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"certverify/verification-backend/internal/records"
)

var importFormat string

var importRecordsCmd = &cobra.Command{
	Use:   "import-records <file>",
	Short: "Import verified records from a CSV, JSON or XLSX file",
	Long: `Import verified records issued by an institution.

The format is taken from the file extension unless --format is given.
Rows that fail validation are reported and skipped; the rest are stored.

Example:
  certctl import-records graduates-2025.csv
  certctl import-records export.dat --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runImportRecords,
}

func init() {
	rootCmd.AddCommand(importRecordsCmd)
	importRecordsCmd.Flags().StringVar(&importFormat, "format", "", "csv, json or xlsx (default: from extension)")
}

type recordImporter func(ctx context.Context, r io.Reader) (*records.BulkUploadResult, error)

func importerFor(svc *records.Service, path, format string) (recordImporter, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch format {
	case "csv":
		return svc.IngestCSV, nil
	case "json":
		return svc.IngestJSON, nil
	case "xlsx":
		return svc.IngestXLSX, nil
	default:
		return nil, fmt.Errorf("unsupported record format %q", format)
	}
}

func runImportRecords(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := context.Background()
	e, api, err := openAPI(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	ingest, err := importerFor(api.Records, path, importFormat)
	if err != nil {
		return err
	}
	res, err := ingest(ctx, f)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d records, %d rejected\n", res.SuccessCount, res.ErrorCount)
	for _, msg := range res.Errors {
		fmt.Fprintf(os.Stderr, "  %s\n", msg)
	}
	return nil
}
