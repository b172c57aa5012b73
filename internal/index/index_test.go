package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cxrdata/cxrsplit/internal/model"
)

func writeIndex(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master_index.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeIndex(t, strings.Join([]string{
		"filename,source,image_path,caption_path,has_caption,file_size_mb,date_added",
		"chexpert_patient1_study1.jpg,CheXpert,Images/a.jpg,captions/a.txt,True,0.4,2025-10-01",
		"radiopaedia_7_case.jpg,Radiopaedia,Images/b.jpg,,False,0.2,2025-10-01",
	}, "\n") + "\n")

	records, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Source != model.SourceCheXpert || !records[0].HasCaption {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].HasCaption {
		t.Errorf("captionless row should have HasCaption=false: %+v", records[1])
	}
}

func TestLoadUnknownSource(t *testing.T) {
	path := writeIndex(t, strings.Join([]string{
		"filename,source,image_path,caption_path",
		"x.jpg,Mystery,Images/x.jpg,captions/x.txt",
	}, "\n") + "\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown source")
	} else if !strings.Contains(err.Error(), "Mystery") {
		t.Errorf("error should name the offending tag: %v", err)
	}
}

func TestLoadMissingColumn(t *testing.T) {
	path := writeIndex(t, "filename,source,image_path\nx.jpg,CheXpert,Images/x.jpg\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing caption_path column")
	}
}

func TestWriteReadSplitRoundTrip(t *testing.T) {
	rows := []Row{
		{
			ImageRecord: model.ImageRecord{
				Filename: "chexpert_patient1_study1.jpg", Source: model.SourceCheXpert,
				ImagePath: "Images/a.jpg", CaptionPath: "captions/a.txt", HasCaption: true,
			},
			PatientID: "chexpert_patient1", Split: model.SplitTrain,
		},
		{
			ImageRecord: model.ImageRecord{
				Filename: "radiopaedia_7_case.jpg", Source: model.SourceRadiopaedia,
				ImagePath: "Images/b.jpg", CaptionPath: "captions/b.txt", HasCaption: true,
			},
			PatientID: "radiopaedia_7", Split: model.SplitTrain,
		},
	}

	path := filepath.Join(t.TempDir(), "train_index.csv")
	if err := WriteSplit(path, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := ReadSplit(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("row %d mismatch: got %+v, want %+v", i, got[i], rows[i])
		}
	}
}
