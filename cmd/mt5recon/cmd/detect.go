package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/mt5recon/bridge"
	"github.com/rustyeddy/mt5recon/recon"
	"github.com/rustyeddy/mt5recon/store"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect demo resets among locally-open trades",
	Long: `Run one reconciliation pass over every locally-open trade leg.

For each leg the detector checks the live positions snapshot, searches the
terminal's deal history for a corroborating close, and classifies the leg.
Legs closed with no out-deal in the search window are marked as suspected
demo resets and an incident record is written.

Exit is non-zero only when the bridge itself is unreachable; finding resets
is a normal outcome.

Example:
  mt5recon detect --config mt5recon.yaml --request-id nightly-2024-03-01`,
	Args: cobra.NoArgs,
	RunE: runDetect,
}

var (
	detectRequestID string
	detectOperation string
)

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVar(&detectRequestID, "request-id", "", "correlation id for logs and audit records (default: random)")
	detectCmd.Flags().StringVar(&detectOperation, "operation", "", "restrict the pass to one operation id")
}

func runDetect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	st, err := store.NewSQLite(cfg.Store.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	detector := recon.NewDetector(bridge.NewClient(cfg.Bridge.BaseURL, cfg.Bridge.Timeout()), st, log)
	detector.MinAge = cfg.Detection.MinAge()

	requestID := detectRequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	report, err := detector.Run(context.Background(), requestID, detectOperation)
	if err != nil {
		return fmt.Errorf("query the MT5 bridge: %w", err)
	}

	resets := report.Resets()
	if len(resets) == 0 {
		fmt.Println("No demo reset detected.")
		return nil
	}

	for _, f := range resets {
		fmt.Printf("[%s] Operation %s (ticket=%d) marked as demo reset.\n",
			f.DetectedAt.Format(time.RFC3339), f.OperationID, f.Ticket)
	}
	return nil
}
