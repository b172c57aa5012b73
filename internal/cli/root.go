// Package cli implements the cxrsplit CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cxrdata/cxrsplit/internal/store"
	"github.com/spf13/cobra"
)

var (
	dbPath     string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "cxrsplit",
	Short: "Patient-level stratified splitting for chest X-ray datasets",
	Long: "cxrsplit partitions multi-source chest X-ray image indexes into " +
		"train/val/test splits at the patient level, stratified by disease, " +
		"with zero patient leakage between splits.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Run-history database path (default: $CXRSPLIT_DB or ~/.cxrsplit/history.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("CXRSPLIT_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cxrsplit", "history.db")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
