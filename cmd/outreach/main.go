package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KoganTheDev/whatsapp-message-automation/internal/automation"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/config"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/contacts"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/database"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/ledger"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/payload"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/resume"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/runner"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/send"
	"github.com/KoganTheDev/whatsapp-message-automation/internal/vision"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "outreach",
		Short:        "Batch WhatsApp outreach driven by a contact spreadsheet",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "campaign.yaml", "campaign config file")

	root.AddCommand(newRunCmd(&configPath))
	root.AddCommand(newRewindCmd(&configPath))

	return root
}

func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the campaign from the saved resume position",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runCampaign(cfg)
		},
	}
}

func newRewindCmd(configPath *string) *cobra.Command {
	var toRow int

	cmd := &cobra.Command{
		Use:   "rewind",
		Short: "Reset the resume position so the next run starts earlier",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			tracker := resume.NewTracker(cfg.StateFile)
			st := tracker.Load(cfg.Spreadsheet)
			st.StartRow = toRow
			if st.StartRow < resume.DefaultStartRow {
				st.StartRow = resume.DefaultStartRow
			}
			if err := tracker.Save(st); err != nil {
				return err
			}
			fmt.Printf("Resume position set to row %d\n", st.StartRow)
			return nil
		},
	}
	cmd.Flags().IntVar(&toRow, "to", resume.DefaultStartRow, "row number the next run starts from")

	return cmd
}

func runCampaign(cfg *config.Config) error {
	log, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer log.Sync()

	// The state file can point at a different spreadsheet than the config;
	// the operator edits it to switch lists mid-campaign.
	tracker := resume.NewTracker(cfg.StateFile)
	st := tracker.Load(cfg.Spreadsheet)
	cfg.Spreadsheet = st.Spreadsheet

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	msgs, err := payload.Load(cfg.Messages)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	classifier, err := vision.LoadClassifier(cfg.Detection)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	source, err := contacts.Open(cfg.Spreadsheet)
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	defer source.Close()

	db, err := database.Open(cfg.LedgerDB)
	if err != nil {
		return err
	}
	led := ledger.New(db)

	driver, err := automation.NewRodDriver(cfg.Browser)
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	defer driver.Shutdown()

	engine := send.NewEngine(driver, classifier, msgs, cfg, log)
	run := runner.New(cfg, source, tracker, led, engine, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run.Run(ctx, st); err != nil {
		if ctx.Err() != nil {
			// The spreadsheet is saved after every row; interrupting only
			// abandons the row in flight.
			log.Info("interrupted, progress saved")
			return nil
		}
		return err
	}
	return nil
}
