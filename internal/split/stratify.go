package split

import (
	"math/rand"
	"sort"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// Partition assigns every patient to a split. Each source is split
// independently so that all sources stay represented in every split;
// within a source, patients are stratified by primary label.
//
// All randomness flows through one rand.Rand seeded here, and every map
// is iterated in sorted key order, so the same input and seed always
// produce the same assignment.
func Partition(patients map[string]*model.PatientRecord, ratios Ratios, seed int64) model.Assignment {
	bySource := make(map[model.Source][]*model.PatientRecord)
	for _, p := range patients {
		bySource[p.Source] = append(bySource[p.Source], p)
	}

	sources := make([]model.Source, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	rng := rand.New(rand.NewSource(seed))
	asg := make(model.Assignment, len(patients))
	for _, s := range sources {
		stratifySource(bySource[s], ratios, rng, asg)
	}
	return asg
}

// stratifySource splits one source's patients, filling asg in place.
func stratifySource(patients []*model.PatientRecord, ratios Ratios, rng *rand.Rand, asg model.Assignment) {
	byLabel := make(map[model.DiseaseLabel][]string)
	for _, p := range patients {
		byLabel[p.PrimaryLabel] = append(byLabel[p.PrimaryLabel], p.ID)
	}

	labels := make([]model.DiseaseLabel, 0, len(byLabel))
	for l := range byLabel {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	for _, l := range labels {
		ids := byLabel[l]
		sort.Strings(ids)
		rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		n := len(ids)
		nTrain := int(float64(n) * ratios.Train)
		nVal := int(float64(n) * ratios.Val)

		// Every non-empty label group contributes at least one patient
		// to train: a group of 1 goes entirely to train, a group of 2
		// yields one train and one test.
		if nTrain == 0 {
			nTrain = 1
		}
		if nTrain+nVal > n {
			nVal = n - nTrain
		}

		for i, id := range ids {
			switch {
			case i < nTrain:
				asg[id] = model.SplitTrain
			case i < nTrain+nVal:
				asg[id] = model.SplitVal
			default:
				asg[id] = model.SplitTest
			}
		}
	}
}
