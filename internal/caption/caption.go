// Package caption extracts disease labels from free-text radiology
// captions via case-insensitive keyword matching.
//
// The matcher is deliberately literal: "No acute infiltrate" matches
// both "no acute" (normal) and "infiltrate" (pneumonia). Negation is
// not modeled; downstream consumers are expected to know this.
package caption

import (
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/cxrdata/cxrsplit/internal/model"
)

// labelKeywords pairs each label with its synonym substrings. Slice, not
// map, so match output order is fixed.
var labelKeywords = []struct {
	label    model.DiseaseLabel
	keywords []string
}{
	{model.LabelPneumonia, []string{"pneumonia", "consolidation", "infiltrate"}},
	{model.LabelPleuralEffusion, []string{"pleural effusion", "effusion"}},
	{model.LabelCardiomegaly, []string{"cardiomegaly", "enlarged heart", "cardiac enlargement"}},
	{model.LabelEdema, []string{"edema", "pulmonary edema"}},
	{model.LabelAtelectasis, []string{"atelectasis", "collapse"}},
	{model.LabelPneumothorax, []string{"pneumothorax"}},
	{model.LabelNodule, []string{"nodule", "mass", "lesion"}},
	{model.LabelFracture, []string{"fracture", "rib fracture"}},
	{model.LabelNormal, []string{"no acute", "normal", "clear lungs", "unremarkable"}},
}

// ParseText returns every label whose synonyms appear in text. The
// result is never empty: no match yields {unspecified}. Pure function.
func ParseText(text string) []model.DiseaseLabel {
	lowered := strings.ToLower(text)

	var labels []model.DiseaseLabel
	for _, lk := range labelKeywords {
		for _, kw := range lk.keywords {
			if strings.Contains(lowered, kw) {
				labels = append(labels, lk.label)
				break
			}
		}
	}

	if len(labels) == 0 {
		return []model.DiseaseLabel{model.LabelUnspecified}
	}
	return labels
}

// ParseFile reads a caption file and returns its labels. ok is false
// when the file was missing, empty, or undecodable; the labels are then
// {unspecified}. ParseFile never returns an error: per-caption failures
// must not abort a split run.
func ParseFile(path string) (labels []model.DiseaseLabel, ok bool) {
	if path == "" {
		return []model.DiseaseLabel{model.LabelUnspecified}, false
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return []model.DiseaseLabel{model.LabelUnspecified}, false
	}

	text := string(b)
	if !utf8.Valid(b) {
		// Latin-1 fallback: every byte sequence decodes, so this is the
		// last resort before giving up on the caption.
		decoded, derr := charmap.ISO8859_1.NewDecoder().Bytes(b)
		if derr != nil {
			return []model.DiseaseLabel{model.LabelUnspecified}, false
		}
		text = string(decoded)
	}

	if strings.TrimSpace(text) == "" {
		return []model.DiseaseLabel{model.LabelUnspecified}, false
	}
	return ParseText(text), true
}
