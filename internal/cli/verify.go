package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	verifyTimeout time.Duration
	verifyJSON    bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify <certificate-id>...",
	Short: "Verify uploaded certificates against the verified records",
	Long: `Run verification for one or more certificates, exactly as the bulk
endpoint does: each certificate is matched, its status updated and any
alerts raised. Unknown ids are reported as failures.

Example:
  certctl verify 3f1c7a2e-0a4b-4c59-9b8e-5d2f0c1e9a77
  certctl verify --json $(cat pending-ids.txt)`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", 10*time.Minute, "total timeout")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "print the full result as JSON")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
	defer cancel()

	e, api, err := openAPI(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := api.Verification.BulkVerify(ctx, args)
	if err != nil {
		return err
	}

	if verifyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	for _, id := range args {
		v, ok := res.Results[id]
		if !ok {
			continue
		}
		state := "FAILED"
		if v.IsVerified {
			state = "VERIFIED"
		}
		fmt.Printf("%-36s  %-8s  %.2f", id, state, v.ConfidenceScore)
		if len(v.Mismatches) > 0 {
			fmt.Printf("  %v", v.Mismatches)
		}
		fmt.Println()
	}
	fmt.Fprintf(os.Stderr, "\n%d/%d verified (%.0f%%)\n", res.Verified, res.TotalCertificates, res.VerificationRate*100)
	return nil
}
