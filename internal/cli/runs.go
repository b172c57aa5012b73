package cli

import (
	"encoding/json"
	"fmt"

	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Query the split run history",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded split runs, newest first",
		Run:   runRunsList,
	}
	listCmd.Flags().IntP("limit", "l", 20, "Max results")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its patient assignments",
		Args:  cobra.ExactArgs(1),
		Run:   runRunsShow,
	}

	runsCmd.AddCommand(listCmd)
	runsCmd.AddCommand(showCmd)
	RootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), store.ListRunsParams{Limit: limit})
	if err != nil {
		exitErr("list runs", err)
	}

	if formatFlag == "text" {
		for _, r := range runs {
			status := pass("valid")
			if !r.OverallValid {
				status = warn("invalid")
			}
			fmt.Printf("%s  %s  seed=%d  %d patients  %d images  %s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Seed, r.Patients, r.Images, status)
		}
		return
	}
	b, _ := json.MarshalIndent(runs, "", "  ")
	fmt.Println(string(b))
}

func runRunsShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	run, asgs, err := s.GetRun(cmd.Context(), args[0])
	if err != nil {
		exitErr("show run", err)
	}

	if formatFlag == "text" {
		fmt.Printf("run %s (%s) seed=%d ratios=%.2f/%.2f/%.2f\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04"), run.Seed,
			run.TrainRatio, run.ValRatio, run.TestRatio)
		for _, a := range asgs {
			fmt.Printf("  %-40s %-12s %-5s %-16s %d images\n",
				a.PatientID, a.Source, a.Split, a.PrimaryLabel, a.Images)
		}
		return
	}

	out := struct {
		Run         *model.RunRecord      `json:"run"`
		Assignments []model.RunAssignment `json:"assignments"`
	}{run, asgs}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
