package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cxrdata/cxrsplit/internal/caption"
	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "caption <file>...",
		Short: "Parse caption files and print extracted disease labels",
		Long: "Debug helper: run the keyword matcher over caption files and show " +
			"the labels and primary stratification label each would contribute.",
		Args: cobra.MinimumNArgs(1),
		Run:  runCaption,
	}

	RootCmd.AddCommand(cmd)
}

func runCaption(cmd *cobra.Command, args []string) {
	type parsed struct {
		File     string               `json:"file"`
		Labels   []model.DiseaseLabel `json:"labels"`
		Primary  model.DiseaseLabel   `json:"primary_label"`
		Readable bool                 `json:"readable"`
	}

	var out []parsed
	for _, path := range args {
		labels, ok := caption.ParseFile(path)
		out = append(out, parsed{
			File:     path,
			Labels:   labels,
			Primary:  model.PrimaryLabel(labels),
			Readable: ok,
		})
	}

	if formatFlag == "text" {
		for _, p := range out {
			note := ""
			if !p.Readable {
				note = "  " + warn("(unreadable)")
			}
			fmt.Printf("%s: %v (primary %s)%s\n", p.File, p.Labels, p.Primary, note)
		}
		return
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
