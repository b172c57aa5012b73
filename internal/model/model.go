// Package model defines the core dataset-splitting data types.
package model

import "time"

// Source identifies the originating dataset for an image.
type Source string

const (
	SourceCheXpert    Source = "CheXpert"
	SourceRadiopaedia Source = "Radiopaedia"
	SourceNIH         Source = "NIH"
	SourceMIMIC       Source = "MIMIC-CXR"
)

// KnownSources are the source tags accepted in a master index.
var KnownSources = map[Source]bool{
	SourceCheXpert:    true,
	SourceRadiopaedia: true,
	SourceNIH:         true,
	SourceMIMIC:       true,
}

// Split is one of the three output partitions.
type Split string

const (
	SplitTrain Split = "train"
	SplitVal   Split = "val"
	SplitTest  Split = "test"
)

// Splits lists the partitions in canonical order.
var Splits = []Split{SplitTrain, SplitVal, SplitTest}

// DiseaseLabel is a finding extracted from a caption.
type DiseaseLabel string

const (
	LabelPneumonia       DiseaseLabel = "pneumonia"
	LabelPneumothorax    DiseaseLabel = "pneumothorax"
	LabelPleuralEffusion DiseaseLabel = "pleural_effusion"
	LabelCardiomegaly    DiseaseLabel = "cardiomegaly"
	LabelEdema           DiseaseLabel = "edema"
	LabelAtelectasis     DiseaseLabel = "atelectasis"
	LabelNodule          DiseaseLabel = "nodule"
	LabelFracture        DiseaseLabel = "fracture"
	LabelNormal          DiseaseLabel = "normal"
	LabelUnspecified     DiseaseLabel = "unspecified"
)

// StratificationPriority orders labels from most to least clinically
// significant. A patient's primary label is the first of their labels
// found in this list.
var StratificationPriority = []DiseaseLabel{
	LabelPneumonia, LabelPneumothorax, LabelPleuralEffusion,
	LabelCardiomegaly, LabelEdema, LabelAtelectasis,
	LabelNodule, LabelFracture, LabelNormal, LabelUnspecified,
}

// PrimaryLabel picks the stratification label for a set of diseases.
func PrimaryLabel(diseases []DiseaseLabel) DiseaseLabel {
	has := make(map[DiseaseLabel]bool, len(diseases))
	for _, d := range diseases {
		has[d] = true
	}
	for _, d := range StratificationPriority {
		if has[d] {
			return d
		}
	}
	if len(diseases) > 0 {
		return diseases[0]
	}
	return LabelUnspecified
}

// ImageRecord is one row of the master index. Immutable once loaded.
type ImageRecord struct {
	Filename    string `json:"filename"`
	Source      Source `json:"source"`
	ImagePath   string `json:"image_path"`
	CaptionPath string `json:"caption_path"`
	HasCaption  bool   `json:"has_caption"`
}

// PatientRecord groups all images of one clinical subject.
// Invariant: every image shares the same Source.
type PatientRecord struct {
	ID           string         `json:"patient_id"`
	Source       Source         `json:"source"`
	Images       []ImageRecord  `json:"images"`
	Diseases     []DiseaseLabel `json:"diseases"`
	PrimaryLabel DiseaseLabel   `json:"primary_label"`
}

// Assignment maps every patient id to exactly one split.
type Assignment map[string]Split

// CheckResult is the outcome of one post-split validation check.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Fatal  bool   `json:"fatal"`
	Detail string `json:"detail,omitempty"`
}

// SplitStats aggregates one split's composition.
type SplitStats struct {
	Patients          int                      `json:"n_patients"`
	Images            int                      `json:"n_images"`
	DiseasePrevalence map[DiseaseLabel]float64 `json:"disease_distribution"`
	SourceCounts      map[Source]int           `json:"source_distribution"`
}

// SplitMetadata is the metadata document emitted alongside the split
// index files.
type SplitMetadata struct {
	GeneratedAt        time.Time     `json:"generated_at"`
	Seed               int64         `json:"random_seed"`
	TrainRatio         float64       `json:"train_ratio"`
	ValRatio           float64       `json:"val_ratio"`
	TestRatio          float64       `json:"test_ratio"`
	IndexPath          string        `json:"index_path,omitempty"`
	Train              SplitStats    `json:"train"`
	Val                SplitStats    `json:"val"`
	Test               SplitStats    `json:"test"`
	Checks             []CheckResult `json:"validation_checks"`
	OverallValid       bool          `json:"overall_valid"`
	UnparsedFilenames  int           `json:"unparsed_filenames"`
	UnreadableCaptions int           `json:"unreadable_captions"`
}

// Stats returns the SplitStats for the named split.
func (m *SplitMetadata) Stats(s Split) SplitStats {
	switch s {
	case SplitVal:
		return m.Val
	case SplitTest:
		return m.Test
	default:
		return m.Train
	}
}
