package split

import (
	"fmt"

	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/patient"
)

// Aggregation is the patient-level view of a master index.
type Aggregation struct {
	Patients map[string]*model.PatientRecord
	// RecordIDs holds the derived patient id for each input record, in
	// input order, so rows can be expanded back after assignment.
	RecordIDs []string

	UnparsedFilenames  int
	UnreadableCaptions int
}

// Aggregate groups image records by derived patient id and unions their
// disease labels. A patient id shared by two sources is an id-collision
// bug and fails the run: grouping correctness is what keeps patients
// from leaking across splits.
func Aggregate(records []model.ImageRecord, captions func(model.ImageRecord) ([]model.DiseaseLabel, bool)) (*Aggregation, error) {
	agg := &Aggregation{
		Patients:  make(map[string]*model.PatientRecord),
		RecordIDs: make([]string, 0, len(records)),
	}
	diseaseSets := make(map[string]map[model.DiseaseLabel]bool)

	for _, rec := range records {
		id, ok := patient.ExtractID(rec.Filename, rec.Source)
		if !ok {
			agg.UnparsedFilenames++
		}
		agg.RecordIDs = append(agg.RecordIDs, id)

		p := agg.Patients[id]
		if p == nil {
			p = &model.PatientRecord{ID: id, Source: rec.Source}
			agg.Patients[id] = p
			diseaseSets[id] = make(map[model.DiseaseLabel]bool)
		} else if p.Source != rec.Source {
			return nil, fmt.Errorf("patient id collision: %q maps to both %s and %s", id, p.Source, rec.Source)
		}
		p.Images = append(p.Images, rec)

		labels, readOK := captions(rec)
		if !readOK {
			agg.UnreadableCaptions++
		}
		for _, l := range labels {
			diseaseSets[id][l] = true
		}
	}

	for id, p := range agg.Patients {
		p.Diseases = orderedLabels(diseaseSets[id])
		p.PrimaryLabel = model.PrimaryLabel(p.Diseases)
	}

	return agg, nil
}

// orderedLabels flattens a label set into the fixed priority order, so
// patient records compare identically across runs.
func orderedLabels(set map[model.DiseaseLabel]bool) []model.DiseaseLabel {
	var out []model.DiseaseLabel
	for _, l := range model.StratificationPriority {
		if set[l] {
			out = append(out, l)
		}
	}
	return out
}
