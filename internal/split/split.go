// Package split implements patient-level stratified splitting: grouping
// images into patients, partitioning patients per source into
// train/val/test, and validating the result.
package split

import (
	"fmt"
	"math"
	"time"

	"github.com/cxrdata/cxrsplit/internal/caption"
	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
)

// ratioTolerance bounds how far the three ratios may drift from summing
// to exactly 1.0.
const ratioTolerance = 0.001

// Ratios are the target split proportions.
type Ratios struct {
	Train float64
	Val   float64
	Test  float64
}

// DefaultRatios is the standard 80/10/10 split.
var DefaultRatios = Ratios{Train: 0.8, Val: 0.1, Test: 0.1}

// Validate rejects ratio sets before any processing starts.
func (r Ratios) Validate() error {
	if r.Train <= 0 {
		return fmt.Errorf("train ratio must be positive, got %v", r.Train)
	}
	if r.Val < 0 || r.Test < 0 {
		return fmt.Errorf("val and test ratios must be non-negative, got %v/%v", r.Val, r.Test)
	}
	if sum := r.Train + r.Val + r.Test; math.Abs(sum-1.0) > ratioTolerance {
		return fmt.Errorf("ratios must sum to 1.0, got %v", sum)
	}
	return nil
}

// Options configures one split run.
type Options struct {
	Ratios Ratios
	Seed   int64
	// IndexPath is recorded in metadata only.
	IndexPath string
	// Captions resolves an image to its disease labels. Defaults to
	// reading the record's caption file from disk.
	Captions func(model.ImageRecord) ([]model.DiseaseLabel, bool)
}

// Result is the output of a full split run.
type Result struct {
	Patients   map[string]*model.PatientRecord
	Assignment model.Assignment
	Rows       map[model.Split][]index.Row
	Metadata   *model.SplitMetadata
}

// Run executes the whole pipeline: aggregate, partition, validate,
// expand. A fatal check failure returns an error and no Result, so
// callers cannot emit partial artifacts.
func Run(records []model.ImageRecord, opts Options) (*Result, error) {
	if err := opts.Ratios.Validate(); err != nil {
		return nil, err
	}
	if opts.Captions == nil {
		opts.Captions = defaultCaptions
	}

	agg, err := Aggregate(records, opts.Captions)
	if err != nil {
		return nil, err
	}

	asg := Partition(agg.Patients, opts.Ratios, opts.Seed)

	checks := Validate(agg.Patients, asg, opts.Ratios)
	if err := FatalFailure(checks); err != nil {
		return nil, err
	}

	rows := make(map[model.Split][]index.Row, len(model.Splits))
	for i, rec := range records {
		id := agg.RecordIDs[i]
		s := asg[id]
		rows[s] = append(rows[s], index.Row{ImageRecord: rec, PatientID: id, Split: s})
	}

	md := BuildMetadata(agg, asg, checks, opts)
	md.GeneratedAt = time.Now().UTC()

	return &Result{
		Patients:   agg.Patients,
		Assignment: asg,
		Rows:       rows,
		Metadata:   md,
	}, nil
}

func defaultCaptions(rec model.ImageRecord) ([]model.DiseaseLabel, bool) {
	if !rec.HasCaption {
		return []model.DiseaseLabel{model.LabelUnspecified}, true
	}
	return caption.ParseFile(rec.CaptionPath)
}
