package split

import (
	"github.com/cxrdata/cxrsplit/internal/model"
)

// BuildMetadata assembles the metadata document for a validated split.
func BuildMetadata(agg *Aggregation, asg model.Assignment, checks []model.CheckResult, opts Options) *model.SplitMetadata {
	perSplit := make(map[model.Split]map[string]bool, len(model.Splits))
	for _, s := range model.Splits {
		perSplit[s] = make(map[string]bool)
	}
	for id, s := range asg {
		perSplit[s][id] = true
	}

	md := &model.SplitMetadata{
		Seed:               opts.Seed,
		TrainRatio:         opts.Ratios.Train,
		ValRatio:           opts.Ratios.Val,
		TestRatio:          opts.Ratios.Test,
		IndexPath:          opts.IndexPath,
		Checks:             checks,
		UnparsedFilenames:  agg.UnparsedFilenames,
		UnreadableCaptions: agg.UnreadableCaptions,
	}

	md.Train = splitStats(agg.Patients, perSplit[model.SplitTrain])
	md.Val = splitStats(agg.Patients, perSplit[model.SplitVal])
	md.Test = splitStats(agg.Patients, perSplit[model.SplitTest])

	md.OverallValid = true
	for _, c := range checks {
		if !c.Passed {
			md.OverallValid = false
		}
	}
	return md
}

func splitStats(patients map[string]*model.PatientRecord, ids map[string]bool) model.SplitStats {
	st := model.SplitStats{
		Patients:          len(ids),
		DiseasePrevalence: prevalence(patients, ids),
		SourceCounts:      make(map[model.Source]int),
	}
	for id := range ids {
		p := patients[id]
		if p == nil {
			continue
		}
		st.Images += len(p.Images)
		st.SourceCounts[p.Source]++
	}
	return st
}
