// Package index reads the master image index and reads/writes the
// per-split index files.
package index

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// requiredColumns must be present in a master index header.
var requiredColumns = []string{"filename", "source", "image_path", "caption_path"}

// Row is one line of a split index file: an image plus its resolved
// patient id and split.
type Row struct {
	model.ImageRecord
	PatientID string      `json:"patient_id"`
	Split     model.Split `json:"split"`
}

// Load reads a master index CSV. Extra columns are ignored except
// has_caption, which marks captionless rows. Unknown source tags are a
// configuration error and reject the whole index.
func Load(path string) ([]model.ImageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("index %s is empty", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range requiredColumns {
		if _, present := col[name]; !present {
			return nil, fmt.Errorf("index %s: missing required column %q", path, name)
		}
	}
	hasCaptionCol, hasCaptionPresent := col["has_caption"]

	records := make([]model.ImageRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		get := func(name string) string {
			idx := col[name]
			if idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		src := model.Source(get("source"))
		if !model.KnownSources[src] {
			return nil, fmt.Errorf("index %s row %d: unknown source %q", path, i+2, src)
		}

		rec := model.ImageRecord{
			Filename:    get("filename"),
			Source:      src,
			ImagePath:   get("image_path"),
			CaptionPath: get("caption_path"),
			HasCaption:  true,
		}
		if hasCaptionPresent && hasCaptionCol < len(row) {
			if v, perr := strconv.ParseBool(row[hasCaptionCol]); perr == nil {
				rec.HasCaption = v
			}
		}
		if rec.CaptionPath == "" {
			rec.HasCaption = false
		}
		records = append(records, rec)
	}

	return records, nil
}

// splitHeader is the column layout of the emitted split index files.
var splitHeader = []string{"filename", "source", "image_path", "caption_path", "patient_id", "split"}

// WriteSplit writes one split's rows to a CSV file.
func WriteSplit(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(splitHeader); err != nil {
		f.Close()
		return err
	}
	for _, r := range rows {
		rec := []string{r.Filename, string(r.Source), r.ImagePath, r.CaptionPath, r.PatientID, string(r.Split)}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// ReadSplit reads back an emitted split index file, for validation.
func ReadSplit(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open split index: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read split index %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("split index %s is empty", path)
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range splitHeader {
		if _, present := col[name]; !present {
			return nil, fmt.Errorf("split index %s: missing column %q", path, name)
		}
	}

	out := make([]Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		out = append(out, Row{
			ImageRecord: model.ImageRecord{
				Filename:    row[col["filename"]],
				Source:      model.Source(row[col["source"]]),
				ImagePath:   row[col["image_path"]],
				CaptionPath: row[col["caption_path"]],
				HasCaption:  row[col["caption_path"]] != "",
			},
			PatientID: row[col["patient_id"]],
			Split:     model.Split(row[col["split"]]),
		})
	}
	return out, nil
}
