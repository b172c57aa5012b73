package split

import (
	"fmt"
	"reflect"
	"sort"
	"testing"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// testCorpus builds a two-source index: 20 CheXpert patients with two
// images each and 10 Radiopaedia patients with one image each, plus the
// caption labels for every image.
func testCorpus(t *testing.T) ([]model.ImageRecord, func(model.ImageRecord) ([]model.DiseaseLabel, bool)) {
	t.Helper()
	var records []model.ImageRecord
	captions := make(map[string][]model.DiseaseLabel)

	chexpertLabels := []model.DiseaseLabel{model.LabelPneumonia, model.LabelNormal}
	for i := 0; i < 20; i++ {
		label := chexpertLabels[i%len(chexpertLabels)]
		for study := 1; study <= 2; study++ {
			name := fmt.Sprintf("chexpert_patient%03d_study%d.jpg", i, study)
			records = append(records, model.ImageRecord{
				Filename: name, Source: model.SourceCheXpert,
				ImagePath: "Images/" + name, CaptionPath: "captions/" + name + ".txt", HasCaption: true,
			})
			captions[name] = []model.DiseaseLabel{label}
		}
	}
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("radiopaedia_%d_case.jpg", i)
		records = append(records, model.ImageRecord{
			Filename: name, Source: model.SourceRadiopaedia,
			ImagePath: "Images/" + name, CaptionPath: "captions/" + name + ".txt", HasCaption: true,
		})
		captions[name] = []model.DiseaseLabel{model.LabelNodule}
	}

	return records, captionsFromMap(captions)
}

func runCorpus(t *testing.T, seed int64) (*Result, []model.ImageRecord) {
	t.Helper()
	records, captions := testCorpus(t)
	res, err := Run(records, Options{Ratios: DefaultRatios, Seed: seed, Captions: captions})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res, records
}

func TestRunCoverageAndDisjointness(t *testing.T) {
	res, _ := runCorpus(t, 42)

	if len(res.Assignment) != len(res.Patients) {
		t.Fatalf("assignment has %d patients, aggregation has %d", len(res.Assignment), len(res.Patients))
	}
	for id := range res.Patients {
		if _, ok := res.Assignment[id]; !ok {
			t.Errorf("patient %s has no split", id)
		}
	}
}

func TestRunNoIntraPatientLeakage(t *testing.T) {
	res, _ := runCorpus(t, 42)

	splitOf := make(map[string]model.Split)
	for s, rows := range res.Rows {
		for _, r := range rows {
			if prev, seen := splitOf[r.PatientID]; seen && prev != s {
				t.Errorf("patient %s has images in both %s and %s", r.PatientID, prev, s)
			}
			splitOf[r.PatientID] = s
		}
	}

	// Multi-image patients contribute all images to their one split.
	for id, p := range res.Patients {
		if len(p.Images) < 2 {
			continue
		}
		count := 0
		for _, r := range res.Rows[res.Assignment[id]] {
			if r.PatientID == id {
				count++
			}
		}
		if count != len(p.Images) {
			t.Errorf("patient %s: %d of %d images in split %s", id, count, len(p.Images), res.Assignment[id])
		}
	}
}

func TestRunImageRoundTrip(t *testing.T) {
	res, records := runCorpus(t, 42)

	var got []string
	for _, s := range model.Splits {
		for _, r := range res.Rows[s] {
			got = append(got, r.Filename)
		}
	}
	want := make([]string, len(records))
	for i, rec := range records {
		want[i] = rec.Filename
	}
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output image multiset differs from input: %d vs %d files", len(got), len(want))
	}
}

func TestRunDeterministic(t *testing.T) {
	first, _ := runCorpus(t, 42)
	second, _ := runCorpus(t, 42)

	if !reflect.DeepEqual(first.Assignment, second.Assignment) {
		t.Error("same seed produced different assignments")
	}
	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Error("same seed produced different split rows")
	}
}

func TestRunMetadataCounts(t *testing.T) {
	res, records := runCorpus(t, 42)
	md := res.Metadata

	if md.Train.Patients+md.Val.Patients+md.Test.Patients != len(res.Patients) {
		t.Errorf("per-split patient counts do not sum to %d", len(res.Patients))
	}
	if md.Train.Images+md.Val.Images+md.Test.Images != len(records) {
		t.Errorf("per-split image counts do not sum to %d", len(records))
	}
	if !md.OverallValid {
		t.Errorf("expected valid run, checks: %+v", md.Checks)
	}
	if md.Seed != 42 {
		t.Errorf("seed = %d, want 42", md.Seed)
	}
}

func TestRunFatalWhenSourceTooSmall(t *testing.T) {
	// Two Radiopaedia patients cannot populate val, so the
	// source-presence invariant fails and the run aborts.
	records, captionMap := []model.ImageRecord{}, make(map[string][]model.DiseaseLabel)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("chexpert_patient%03d_study1.jpg", i)
		records = append(records, model.ImageRecord{Filename: name, Source: model.SourceCheXpert, HasCaption: true})
		captionMap[name] = []model.DiseaseLabel{model.LabelPneumonia}
	}
	for i := 0; i < 2; i++ {
		name := fmt.Sprintf("radiopaedia_%d_case.jpg", i)
		records = append(records, model.ImageRecord{Filename: name, Source: model.SourceRadiopaedia, HasCaption: true})
		captionMap[name] = []model.DiseaseLabel{model.LabelNormal}
	}

	_, err := Run(records, Options{Ratios: DefaultRatios, Seed: 42, Captions: captionsFromMap(captionMap)})
	if err == nil {
		t.Fatal("expected fatal source-presence failure")
	}
}

func TestRunRejectsBadRatios(t *testing.T) {
	records, captions := testCorpus(t)
	_, err := Run(records, Options{Ratios: Ratios{0.8, 0.3, 0.1}, Seed: 42, Captions: captions})
	if err == nil {
		t.Fatal("expected ratio validation error")
	}
}
