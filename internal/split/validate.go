package split

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
)

const (
	// ratioSlack is how far a split's realized patient fraction may
	// drift from its target before a warning is raised.
	ratioSlack = 0.05
	// prevalenceSlack is the max tolerated per-label prevalence gap
	// between any two splits, in absolute fraction.
	prevalenceSlack = 0.10
)

// Validate runs every invariant check over a fresh assignment. All
// checks always run; fatal ones gate artifact emission via
// FatalFailure.
func Validate(patients map[string]*model.PatientRecord, asg model.Assignment, ratios Ratios) []model.CheckResult {
	perSplit := make(map[model.Split]map[string]bool, len(model.Splits))
	for _, s := range model.Splits {
		perSplit[s] = make(map[string]bool)
	}
	for id, s := range asg {
		perSplit[s][id] = true
	}

	var checks []model.CheckResult
	checks = append(checks, checkOverlap(perSplit))
	checks = append(checks, checkCoverage(patients, asg))
	checks = append(checks, checkSources(patients, perSplit)...)
	checks = append(checks, checkRatios(perSplit, ratios))
	checks = append(checks, checkDiseaseBalance(patients, perSplit))
	return checks
}

// FatalFailure returns an error for the first failed fatal check, nil
// if all fatal checks passed.
func FatalFailure(checks []model.CheckResult) error {
	for _, c := range checks {
		if c.Fatal && !c.Passed {
			return fmt.Errorf("split invariant %s violated: %s", c.Name, c.Detail)
		}
	}
	return nil
}

func checkOverlap(perSplit map[model.Split]map[string]bool) model.CheckResult {
	c := model.CheckResult{Name: "no_patient_overlap", Fatal: true, Passed: true}
	var bad []string
	for i, a := range model.Splits {
		for _, b := range model.Splits[i+1:] {
			for id := range perSplit[a] {
				if perSplit[b][id] {
					bad = append(bad, fmt.Sprintf("%s in %s and %s", id, a, b))
				}
			}
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		c.Passed = false
		c.Detail = strings.Join(bad, "; ")
	}
	return c
}

func checkCoverage(patients map[string]*model.PatientRecord, asg model.Assignment) model.CheckResult {
	c := model.CheckResult{Name: "all_patients_assigned", Fatal: true, Passed: true}
	var missing, unknown []string
	for id := range patients {
		if _, assigned := asg[id]; !assigned {
			missing = append(missing, id)
		}
	}
	for id := range asg {
		if _, known := patients[id]; !known {
			unknown = append(unknown, id)
		}
	}
	if len(missing) > 0 || len(unknown) > 0 {
		sort.Strings(missing)
		sort.Strings(unknown)
		c.Passed = false
		c.Detail = fmt.Sprintf("unassigned: %v, assigned-but-unknown: %v", missing, unknown)
	}
	return c
}

func checkSources(patients map[string]*model.PatientRecord, perSplit map[model.Split]map[string]bool) []model.CheckResult {
	all := make(map[model.Source]bool)
	for _, p := range patients {
		all[p.Source] = true
	}

	var checks []model.CheckResult
	for _, s := range model.Splits {
		c := model.CheckResult{Name: fmt.Sprintf("%s_has_all_sources", s), Fatal: true, Passed: true}
		seen := make(map[model.Source]bool)
		for id := range perSplit[s] {
			if p := patients[id]; p != nil {
				seen[p.Source] = true
			}
		}
		var missing []string
		for src := range all {
			if !seen[src] {
				missing = append(missing, string(src))
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			c.Passed = false
			c.Detail = fmt.Sprintf("split %s has no patients from %s", s, strings.Join(missing, ", "))
		}
		checks = append(checks, c)
	}
	return checks
}

func checkRatios(perSplit map[model.Split]map[string]bool, ratios Ratios) model.CheckResult {
	c := model.CheckResult{Name: "ratio_validation", Fatal: false, Passed: true}
	total := 0
	for _, ids := range perSplit {
		total += len(ids)
	}
	if total == 0 {
		c.Passed = false
		c.Detail = "no patients assigned"
		return c
	}

	targets := map[model.Split]float64{
		model.SplitTrain: ratios.Train,
		model.SplitVal:   ratios.Val,
		model.SplitTest:  ratios.Test,
	}
	var drift []string
	for _, s := range model.Splits {
		got := float64(len(perSplit[s])) / float64(total)
		if math.Abs(got-targets[s]) > ratioSlack {
			drift = append(drift, fmt.Sprintf("%s=%.3f (target %.2f)", s, got, targets[s]))
		}
	}
	if len(drift) > 0 {
		c.Passed = false
		c.Detail = strings.Join(drift, ", ")
	}
	return c
}

func checkDiseaseBalance(patients map[string]*model.PatientRecord, perSplit map[model.Split]map[string]bool) model.CheckResult {
	c := model.CheckResult{Name: "disease_balance", Fatal: false, Passed: true}

	prev := make(map[model.Split]map[model.DiseaseLabel]float64, len(model.Splits))
	for _, s := range model.Splits {
		prev[s] = prevalence(patients, perSplit[s])
	}

	var unbalanced []string
	for _, l := range model.StratificationPriority {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, s := range model.Splits {
			if len(perSplit[s]) == 0 {
				continue
			}
			p := prev[s][l]
			lo = math.Min(lo, p)
			hi = math.Max(hi, p)
		}
		if hi > lo && hi-lo >= prevalenceSlack {
			unbalanced = append(unbalanced, fmt.Sprintf("%s delta %.3f", l, hi-lo))
		}
	}
	if len(unbalanced) > 0 {
		c.Passed = false
		c.Detail = strings.Join(unbalanced, ", ")
	}
	return c
}

// prevalence computes the fraction of a split's patients carrying each
// label.
func prevalence(patients map[string]*model.PatientRecord, ids map[string]bool) map[model.DiseaseLabel]float64 {
	out := make(map[model.DiseaseLabel]float64)
	if len(ids) == 0 {
		return out
	}
	for id := range ids {
		p := patients[id]
		if p == nil {
			continue
		}
		for _, d := range p.Diseases {
			out[d]++
		}
	}
	for d := range out {
		out[d] /= float64(len(ids))
	}
	return out
}

// AuditRows re-checks emitted split index files: patient disjointness
// across files, intra-file split column consistency, and source
// presence per split. Used by the validate command, which has only the
// artifacts to work from.
func AuditRows(rowsBySplit map[model.Split][]index.Row) []model.CheckResult {
	perSplit := make(map[model.Split]map[string]bool, len(rowsBySplit))
	all := make(map[model.Source]bool)
	var checks []model.CheckResult

	labeled := model.CheckResult{Name: "split_column_consistent", Fatal: true, Passed: true}
	for s, rows := range rowsBySplit {
		perSplit[s] = make(map[string]bool)
		for _, r := range rows {
			perSplit[s][r.PatientID] = true
			all[r.Source] = true
			if r.Split != s {
				labeled.Passed = false
				labeled.Detail = fmt.Sprintf("row %s labeled %s inside the %s index", r.Filename, r.Split, s)
			}
		}
	}
	for _, s := range model.Splits {
		if perSplit[s] == nil {
			perSplit[s] = make(map[string]bool)
		}
	}

	checks = append(checks, checkOverlap(perSplit))
	checks = append(checks, labeled)

	for _, s := range model.Splits {
		c := model.CheckResult{Name: fmt.Sprintf("%s_has_all_sources", s), Fatal: true, Passed: true}
		seen := make(map[model.Source]bool)
		for _, r := range rowsBySplit[s] {
			seen[r.Source] = true
		}
		var missing []string
		for src := range all {
			if !seen[src] {
				missing = append(missing, string(src))
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			c.Passed = false
			c.Detail = fmt.Sprintf("split %s has no rows from %s", s, strings.Join(missing, ", "))
		}
		checks = append(checks, c)
	}
	return checks
}
