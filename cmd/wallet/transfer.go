package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wallet/internal/export"
	"wallet/internal/ledger"
)

var (
	flagFormat string
	flagOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the ledger as JSON or an Excel workbook",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the ledger with a JSON export",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load sample data into empty storage",
	RunE:  runSeed,
}

func init() {
	exportCmd.Flags().StringVarP(&flagFormat, "format", "f", export.ExtJSON, "Export format: json or xlsx")
	exportCmd.Flags().StringVarP(&flagOutput, "output", "o", "", `Output file (default wallet-assistant-export-<date>.<ext>, "-" for stdout)`)
	rootCmd.AddCommand(exportCmd, importCmd, seedCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(flagFormat)
	if format != export.ExtJSON && format != export.ExtXLSX {
		return fmt.Errorf("unsupported format %q: use json or xlsx", flagFormat)
	}

	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		path := flagOutput
		if path == "" {
			path = export.FileName(time.Now(), format)
		}

		var w io.Writer = os.Stdout
		if path != "-" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		var err error
		if format == export.ExtXLSX {
			err = export.WriteXLSX(w, export.WorkbookFrom(m))
		} else {
			err = export.WriteJSON(w, m.Snapshot())
		}
		if err != nil {
			return err
		}
		if path != "-" {
			fmt.Fprintf(os.Stderr, "Exported %d expenses to %s\n", m.Len(), path)
		}
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	snap, err := export.ReadJSON(f)
	if err != nil {
		return err
	}
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		if err := m.Import(cmd.Context(), snap); err != nil {
			return err
		}
		fmt.Printf("Imported %d expenses\n", len(snap.Expenses))
		return nil
	})
}

func runSeed(cmd *cobra.Command, _ []string) error {
	return withLedger(cmd.Context(), func(m *ledger.Manager) error {
		seeded, err := m.Seed(cmd.Context())
		if err != nil {
			return err
		}
		if !seeded {
			fmt.Println("Storage already holds expenses, nothing seeded")
			return nil
		}
		fmt.Printf("Loaded %d sample expenses\n", m.Len())
		return nil
	})
}
