package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/patient"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dataset or run-history statistics",
		Long: "With --index, report dataset statistics (per-source counts, caption " +
			"coverage, patients). Without it, report run-history database statistics.",
		Run: runStats,
	}

	cmd.Flags().StringP("index", "i", "", "Master index CSV to analyze")

	RootCmd.AddCommand(cmd)
}

// datasetStats summarizes a master index before splitting.
type datasetStats struct {
	Images              int                  `json:"total_images"`
	Captioned           int                  `json:"captioned_images"`
	Patients            int                  `json:"total_patients"`
	MultiImagePatients  int                  `json:"multi_image_patients"`
	MaxImagesPerPatient int                  `json:"max_images_per_patient"`
	UnparsedFilenames   int                  `json:"unparsed_filenames"`
	SourceCounts        map[model.Source]int `json:"source_distribution"`
}

func runStats(cmd *cobra.Command, args []string) {
	indexPath, _ := cmd.Flags().GetString("index")

	if indexPath == "" {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()

		st, err := s.Stats(cmd.Context(), getDBPath())
		if err != nil {
			exitErr("stats", err)
		}
		b, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(b))
		return
	}

	records, err := index.Load(indexPath)
	if err != nil {
		exitErr("load index", err)
	}

	st := datasetStats{
		Images:       len(records),
		SourceCounts: make(map[model.Source]int),
	}
	imagesPerPatient := make(map[string]int)
	for _, rec := range records {
		st.SourceCounts[rec.Source]++
		if rec.HasCaption {
			st.Captioned++
		}
		id, ok := patient.ExtractID(rec.Filename, rec.Source)
		if !ok {
			st.UnparsedFilenames++
		}
		imagesPerPatient[id]++
	}
	st.Patients = len(imagesPerPatient)
	for _, n := range imagesPerPatient {
		if n > 1 {
			st.MultiImagePatients++
		}
		if n > st.MaxImagesPerPatient {
			st.MaxImagesPerPatient = n
		}
	}

	if formatFlag == "text" {
		fmt.Printf("Images:   %d (%d captioned)\n", st.Images, st.Captioned)
		fmt.Printf("Patients: %d (%d with multiple images, max %d)\n",
			st.Patients, st.MultiImagePatients, st.MaxImagesPerPatient)
		sources := make([]model.Source, 0, len(st.SourceCounts))
		for s := range st.SourceCounts {
			sources = append(sources, s)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
		for _, s := range sources {
			fmt.Printf("  %-12s %d\n", s, st.SourceCounts[s])
		}
		if st.UnparsedFilenames > 0 {
			fmt.Printf("  %s %d filenames would fall back to hashed ids\n", warn("warn:"), st.UnparsedFilenames)
		}
		return
	}
	b, _ := json.MarshalIndent(st, "", "  ")
	fmt.Println(string(b))
}
