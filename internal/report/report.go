// Package report persists split artifacts: the three split index files,
// the metadata document, and the patient mapping. Files are staged in a
// temp directory and moved into place only once every write succeeded,
// so a failed run never leaves a partial artifact set behind.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cxrdata/cxrsplit/internal/index"
	"github.com/cxrdata/cxrsplit/internal/model"
	"github.com/cxrdata/cxrsplit/internal/split"
)

// Artifact file names inside the output directory.
const (
	TrainIndexFile     = "train_index.csv"
	ValIndexFile       = "val_index.csv"
	TestIndexFile      = "test_index.csv"
	MetadataFile       = "split_metadata.json"
	PatientMappingFile = "patient_mapping.json"
)

// IndexFile returns the split index file name for a split.
func IndexFile(s model.Split) string {
	switch s {
	case model.SplitVal:
		return ValIndexFile
	case model.SplitTest:
		return TestIndexFile
	default:
		return TrainIndexFile
	}
}

// Write emits all artifacts for a validated split result into outDir.
func Write(outDir string, res *split.Result) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	stage, err := os.MkdirTemp(outDir, ".staging-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	var names []string
	for _, s := range model.Splits {
		name := IndexFile(s)
		if err := index.WriteSplit(filepath.Join(stage, name), res.Rows[s]); err != nil {
			return err
		}
		names = append(names, name)
	}

	if err := writeJSON(filepath.Join(stage, MetadataFile), res.Metadata); err != nil {
		return err
	}
	names = append(names, MetadataFile)

	if err := writeJSON(filepath.Join(stage, PatientMappingFile), res.Assignment); err != nil {
		return err
	}
	names = append(names, PatientMappingFile)

	// Everything staged; move into place.
	for _, name := range names {
		if err := os.Rename(filepath.Join(stage, name), filepath.Join(outDir, name)); err != nil {
			return fmt.Errorf("move %s into place: %w", name, err)
		}
	}
	return nil
}

// ReadMetadata loads a previously emitted metadata document.
func ReadMetadata(outDir string) (*model.SplitMetadata, error) {
	b, err := os.ReadFile(filepath.Join(outDir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var md model.SplitMetadata
	if err := json.Unmarshal(b, &md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &md, nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
