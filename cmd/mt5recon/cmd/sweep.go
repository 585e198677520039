package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/mt5recon/bridge"
	"github.com/rustyeddy/mt5recon/recon"
	"github.com/rustyeddy/mt5recon/store"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark trades absent from the terminal as manually closed",
	Long: `Mark every locally-open trade leg that no longer exists on the terminal
as manually closed, without reset-evidence gathering.

Use this after deliberate terminal-side interventions, when the positions
are known to be gone and no incident trail is wanted.`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

var sweepOperation string

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVar(&sweepOperation, "operation", "", "restrict the sweep to one operation id")
}

func runSweep(cmd *cobra.Command, args []string) error {
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

	closed, err := detector.Sweep(context.Background(), sweepOperation)
	if err != nil {
		return fmt.Errorf("query the MT5 bridge: %w", err)
	}

	if len(closed) == 0 {
		fmt.Println("All open trades are present on the terminal.")
		return nil
	}
	for _, ticket := range closed {
		fmt.Printf("Trade %d marked as manually closed.\n", ticket)
	}
	return nil
}
