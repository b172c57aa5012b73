package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cxrdata/cxrsplit/internal/caption"
	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/report"
	"github.com/cxrdata/cxrsplit/internal/split"
	"github.com/cxrdata/cxrsplit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Create patient-level stratified train/val/test splits",
		Long: "Read a master image index, group images by patient, extract disease " +
			"labels from captions, and emit stratified split index files plus metadata.",
		Run: runSplit,
	}

	cmd.Flags().StringP("index", "i", "", "Master index CSV (required)")
	cmd.Flags().StringP("out", "o", "metadata/splits", "Output directory for split artifacts")
	cmd.Flags().Float64("train-ratio", split.DefaultRatios.Train, "Training set proportion")
	cmd.Flags().Float64("val-ratio", split.DefaultRatios.Val, "Validation set proportion")
	cmd.Flags().Float64("test-ratio", split.DefaultRatios.Test, "Test set proportion")
	cmd.Flags().Int64("seed", 42, "Random seed for reproducible shuffling")
	cmd.Flags().Bool("no-store", false, "Skip recording the run in the history database")

	cmd.MarkFlagRequired("index")

	RootCmd.AddCommand(cmd)
}

func runSplit(cmd *cobra.Command, args []string) {
	indexPath, _ := cmd.Flags().GetString("index")
	outDir, _ := cmd.Flags().GetString("out")
	trainRatio, _ := cmd.Flags().GetFloat64("train-ratio")
	valRatio, _ := cmd.Flags().GetFloat64("val-ratio")
	testRatio, _ := cmd.Flags().GetFloat64("test-ratio")
	seed, _ := cmd.Flags().GetInt64("seed")
	noStore, _ := cmd.Flags().GetBool("no-store")

	records, err := index.Load(indexPath)
	if err != nil {
		exitErr("load index", err)
	}

	// Caption paths in the index are relative to the index file's
	// directory unless absolute.
	baseDir := filepath.Dir(indexPath)
	opts := split.Options{
		Ratios:    split.Ratios{Train: trainRatio, Val: valRatio, Test: testRatio},
		Seed:      seed,
		IndexPath: indexPath,
		Captions: func(rec model.ImageRecord) ([]model.DiseaseLabel, bool) {
			if !rec.HasCaption {
				return []model.DiseaseLabel{model.LabelUnspecified}, true
			}
			path := rec.CaptionPath
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			return caption.ParseFile(path)
		},
	}

	res, err := split.Run(records, opts)
	if err != nil {
		exitErr("split", err)
	}

	if err := report.Write(outDir, res); err != nil {
		exitErr("write artifacts", err)
	}

	if !noStore {
		recordRun(cmd, res)
	}

	if formatFlag == "text" {
		printSummary(res.Metadata, outDir)
		return
	}
	b, _ := json.MarshalIndent(res.Metadata, "", "  ")
	fmt.Println(string(b))
}

// recordRun is best-effort: the artifacts on disk are the source of
// truth, so a store failure only warns.
func recordRun(cmd *cobra.Command, res *split.Result) {
	s, err := openStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: open run history: %v\n", err)
		return
	}
	defer s.Close()

	run, err := s.RecordRun(cmd.Context(), store.RecordRunParams{
		Metadata:   res.Metadata,
		Patients:   res.Patients,
		Assignment: res.Assignment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: record run: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "recorded run %s\n", run.ID)
}
