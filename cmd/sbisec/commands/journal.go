package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sbisec-trading-bot/internal/journal"
	"sbisec-trading-bot/internal/logger"
)

var (
	journalDir    string
	summarizeDate string
	retentionDays int
)

func init() {
	journalCmd.PersistentFlags().StringVar(&journalDir, "dir", "", "journal directory (default: journal.dir from the config)")
	summarizeCmd.Flags().StringVar(&summarizeDate, "date", "", "day to summarize as YYYY-MM-DD (default: today, JST)")
	compressCmd.Flags().IntVar(&retentionDays, "days", 0, "compress files older than this many days (default: journal.retention_days)")

	journalCmd.AddCommand(summarizeCmd, compressCmd)
	rootCmd.AddCommand(journalCmd)
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Maintains the order journal.",
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Writes the CSV summary of one day's orders.",
	RunE: func(cmd *cobra.Command, args []string) error {
		day := time.Now().In(journal.JST)
		if summarizeDate != "" {
			t, err := time.ParseInLocation("2006-01-02", summarizeDate, journal.JST)
			if err != nil {
				return fmt.Errorf("--date: %w", err)
			}
			day = t
		}

		path, err := openJournal(cmd).SummarizeDay(day)
		if err != nil {
			return err
		}
		if path == "" {
			logger.Info(cmd.Context(), "No orders journaled", "date", day.Format("2006-01-02"))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var compressCmd = &cobra.Command{
	Use:   "compress",
	Short: "Gzips journal files past the retention period.",
	RunE: func(cmd *cobra.Command, args []string) error {
		days := retentionDays
		if !cmd.Flags().Changed("days") {
			days = configuredRetention(cmd)
		}

		n, err := openJournal(cmd).CompressOlder(days)
		if err != nil {
			return err
		}
		logger.Info(cmd.Context(), "Journal compressed", "files", n, "retention_days", days)
		return nil
	},
}

// openJournal prefers --dir, then the configured directory. The journal is
// usable without credentials, so a config that fails to load falls back to
// the default directory.
func openJournal(cmd *cobra.Command) *journal.Journal {
	if journalDir != "" {
		return journal.New(journalDir)
	}
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return journal.New("")
	}
	return journal.New(cfg.Journal.Dir)
}

func configuredRetention(cmd *cobra.Command) int {
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return 0
	}
	return cfg.Journal.RetentionDays
}
