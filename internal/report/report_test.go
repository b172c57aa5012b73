package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/split"
)

func testResult(t *testing.T) *split.Result {
	t.Helper()
	rows := map[model.Split][]index.Row{}
	asg := model.Assignment{}
	patients := map[string]*model.PatientRecord{}

	for i, s := range model.Splits {
		id := "chexpert_patient" + string(rune('1'+i))
		rec := model.ImageRecord{
			Filename: id + "_study1.jpg", Source: model.SourceCheXpert,
			ImagePath: "Images/" + id + ".jpg", CaptionPath: "captions/" + id + ".txt", HasCaption: true,
		}
		rows[s] = []index.Row{{ImageRecord: rec, PatientID: id, Split: s}}
		asg[id] = s
		patients[id] = &model.PatientRecord{
			ID: id, Source: model.SourceCheXpert,
			Images:   []model.ImageRecord{rec},
			Diseases: []model.DiseaseLabel{model.LabelNormal}, PrimaryLabel: model.LabelNormal,
		}
	}

	return &split.Result{
		Patients:   patients,
		Assignment: asg,
		Rows:       rows,
		Metadata: &model.SplitMetadata{
			GeneratedAt: time.Now().UTC(),
			Seed:        42,
			TrainRatio:  0.8, ValRatio: 0.1, TestRatio: 0.1,
			Train:        model.SplitStats{Patients: 1, Images: 1},
			Val:          model.SplitStats{Patients: 1, Images: 1},
			Test:         model.SplitStats{Patients: 1, Images: 1},
			OverallValid: true,
		},
	}
}

func TestWriteEmitsAllArtifacts(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "splits")
	if err := Write(outDir, testResult(t)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for _, name := range []string{TrainIndexFile, ValIndexFile, TestIndexFile, MetadataFile, PatientMappingFile} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// Staging dir must be cleaned up.
	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Errorf("expected exactly 5 artifacts, found %d entries", len(entries))
	}
}

func TestWriteReadBack(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "splits")
	res := testResult(t)
	if err := Write(outDir, res); err != nil {
		t.Fatalf("write: %v", err)
	}

	md, err := ReadMetadata(outDir)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if md.Seed != 42 || !md.OverallValid {
		t.Errorf("metadata round trip mismatch: %+v", md)
	}

	for _, s := range model.Splits {
		rows, err := index.ReadSplit(filepath.Join(outDir, IndexFile(s)))
		if err != nil {
			t.Fatalf("read %s index: %v", s, err)
		}
		if len(rows) != len(res.Rows[s]) {
			t.Errorf("%s: got %d rows, want %d", s, len(rows), len(res.Rows[s]))
		}
		for _, r := range rows {
			if r.Split != s {
				t.Errorf("%s index holds row labeled %s", s, r.Split)
			}
		}
	}
}
