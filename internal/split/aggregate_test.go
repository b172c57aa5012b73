package split

import (
	"reflect"
	"testing"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// captionsFromMap resolves labels by filename; unknown filenames count
// as unreadable captions.
func captionsFromMap(m map[string][]model.DiseaseLabel) func(model.ImageRecord) ([]model.DiseaseLabel, bool) {
	return func(rec model.ImageRecord) ([]model.DiseaseLabel, bool) {
		if labels, ok := m[rec.Filename]; ok {
			return labels, true
		}
		return []model.DiseaseLabel{model.LabelUnspecified}, false
	}
}

func TestAggregateGroupsByPatient(t *testing.T) {
	records := []model.ImageRecord{
		{Filename: "chexpert_patient5_study1.jpg", Source: model.SourceCheXpert},
		{Filename: "chexpert_patient5_study2.jpg", Source: model.SourceCheXpert},
		{Filename: "radiopaedia_9_case.jpg", Source: model.SourceRadiopaedia},
	}
	captions := captionsFromMap(map[string][]model.DiseaseLabel{
		"chexpert_patient5_study1.jpg": {model.LabelCardiomegaly},
		"chexpert_patient5_study2.jpg": {model.LabelPneumonia, model.LabelCardiomegaly},
		"radiopaedia_9_case.jpg":       {model.LabelNormal},
	})

	agg, err := Aggregate(records, captions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(agg.Patients) != 2 {
		t.Fatalf("expected 2 patients, got %d", len(agg.Patients))
	}

	p := agg.Patients["chexpert_patient5"]
	if p == nil {
		t.Fatal("missing chexpert_patient5")
	}
	if len(p.Images) != 2 {
		t.Errorf("expected 2 images, got %d", len(p.Images))
	}
	// Diseases are unioned and ordered by stratification priority.
	want := []model.DiseaseLabel{model.LabelPneumonia, model.LabelCardiomegaly}
	if !reflect.DeepEqual(p.Diseases, want) {
		t.Errorf("diseases = %v, want %v", p.Diseases, want)
	}
	if p.PrimaryLabel != model.LabelPneumonia {
		t.Errorf("primary = %s, want pneumonia", p.PrimaryLabel)
	}

	if got := agg.RecordIDs; !reflect.DeepEqual(got, []string{"chexpert_patient5", "chexpert_patient5", "radiopaedia_9"}) {
		t.Errorf("record ids = %v", got)
	}
}

func TestAggregateWarningTallies(t *testing.T) {
	records := []model.ImageRecord{
		{Filename: "not-a-chexpert-name.jpg", Source: model.SourceCheXpert},
		{Filename: "radiopaedia_3_case.jpg", Source: model.SourceRadiopaedia},
	}
	captions := captionsFromMap(map[string][]model.DiseaseLabel{
		"radiopaedia_3_case.jpg": {model.LabelNormal},
	})

	agg, err := Aggregate(records, captions)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if agg.UnparsedFilenames != 1 {
		t.Errorf("unparsed filenames = %d, want 1", agg.UnparsedFilenames)
	}
	if agg.UnreadableCaptions != 1 {
		t.Errorf("unreadable captions = %d, want 1", agg.UnreadableCaptions)
	}

	// The fallback patient still exists and carries unspecified.
	for id, p := range agg.Patients {
		if p.Source == model.SourceCheXpert {
			if p.PrimaryLabel != model.LabelUnspecified {
				t.Errorf("fallback patient %s primary = %s, want unspecified", id, p.PrimaryLabel)
			}
		}
	}
}
