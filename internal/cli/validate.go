package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/report"
	"github.com/cxrdata/cxrsplit/internal/split"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Re-check emitted split artifacts",
		Long: "Read the split index files from an output directory and re-run the " +
			"leakage and coverage invariant checks against them.",
		Run: runValidate,
	}

	cmd.Flags().StringP("out", "o", "metadata/splits", "Directory holding split artifacts")

	RootCmd.AddCommand(cmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	outDir, _ := cmd.Flags().GetString("out")

	rowsBySplit := make(map[model.Split][]index.Row, len(model.Splits))
	for _, s := range model.Splits {
		rows, err := index.ReadSplit(filepath.Join(outDir, report.IndexFile(s)))
		if err != nil {
			exitErr("read artifacts", err)
		}
		rowsBySplit[s] = rows
	}

	checks := split.AuditRows(rowsBySplit)

	if formatFlag == "text" {
		printChecks(checks)
	} else {
		b, _ := json.MarshalIndent(checks, "", "  ")
		fmt.Println(string(b))
	}

	if err := split.FatalFailure(checks); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
