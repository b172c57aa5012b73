// Package patient derives canonical patient identifiers from image
// filenames. All functions are pure: same filename and source always
// yield the same id, across runs and processes.
package patient

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/cxrdata/cxrsplit/internal/model"
)

var (
	chexpertRe    = regexp.MustCompile(`patient(\d+)`)
	radiopaediaRe = regexp.MustCompile(`radiopaedia_(\d+)`)
	nihRe         = regexp.MustCompile(`nih_(\d+)_`)
	mimicRe       = regexp.MustCompile(`mimic_p(\d+)`)
)

// ExtractID returns the canonical patient id for a filename under the
// given source. ok is false when the filename did not match the source's
// naming scheme and the deterministic fallback id was used; the caller
// should tally that as a warning, not an error.
func ExtractID(filename string, source model.Source) (id string, ok bool) {
	switch source {
	case model.SourceCheXpert:
		if m := chexpertRe.FindStringSubmatch(filename); m != nil {
			return "chexpert_patient" + m[1], true
		}
	case model.SourceRadiopaedia:
		if m := radiopaediaRe.FindStringSubmatch(filename); m != nil {
			return "radiopaedia_" + m[1], true
		}
	case model.SourceNIH:
		if m := nihRe.FindStringSubmatch(filename); m != nil {
			return "nih_patient" + m[1], true
		}
	case model.SourceMIMIC:
		if m := mimicRe.FindStringSubmatch(filename); m != nil {
			return "mimic_p" + m[1], true
		}
	}
	return FallbackID(filename, source), false
}

// FallbackID builds a synthetic single-image patient id for a filename
// that carries no recognizable patient number.
func FallbackID(filename string, source model.Source) string {
	return fmt.Sprintf("%s_unknown_%s", strings.ToLower(string(source)), StableHash(filename))
}

// StableHash returns a short hex digest of s. Unlike a process-seeded
// hash it is identical across runs, which keeps fallback ids stable.
func StableHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}
