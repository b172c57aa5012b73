package cli

import (
	"fmt"

	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/fatih/color"
)

var (
	pass = color.New(color.FgGreen, color.Bold).SprintFunc()
	warn = color.New(color.FgYellow, color.Bold).SprintFunc()
	fail = color.New(color.FgRed, color.Bold).SprintFunc()
)

// printSummary renders a human-readable split summary for --format text.
func printSummary(md *model.SplitMetadata, outDir string) {
	fmt.Printf("Split complete (seed %d, ratios %.2f/%.2f/%.2f)\n",
		md.Seed, md.TrainRatio, md.ValRatio, md.TestRatio)
	for _, s := range model.Splits {
		st := md.Stats(s)
		fmt.Printf("  %-5s  %5d patients  %6d images\n", s, st.Patients, st.Images)
	}
	if md.UnparsedFilenames > 0 {
		fmt.Printf("  %s %d filenames fell back to hashed patient ids\n", warn("warn:"), md.UnparsedFilenames)
	}
	if md.UnreadableCaptions > 0 {
		fmt.Printf("  %s %d captions were unreadable (labeled unspecified)\n", warn("warn:"), md.UnreadableCaptions)
	}
	printChecks(md.Checks)
	fmt.Printf("Artifacts written to %s\n", outDir)
}

// printChecks renders validation check results with pass/warn/fail
// coloring.
func printChecks(checks []model.CheckResult) {
	for _, c := range checks {
		switch {
		case c.Passed:
			fmt.Printf("  %s %s\n", pass("PASS"), c.Name)
		case c.Fatal:
			fmt.Printf("  %s %s: %s\n", fail("FAIL"), c.Name, c.Detail)
		default:
			fmt.Printf("  %s %s: %s\n", warn("WARN"), c.Name, c.Detail)
		}
	}
}
