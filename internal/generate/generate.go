// Package generate selects reactions of a family from a training source so
// they can be turned into database records.
package generate

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/dreamware/am3db/internal/toolkit"
)

// Mode names where reactions come from
type Mode string

// ModeTraining draws reactions from a family's training set
const ModeTraining Mode = "training"

// ErrUnsupportedMode is returned for any mode other than ModeTraining
var ErrUnsupportedMode = errors.New("unsupported generation mode")

// ParseMode normalises a mode name.
// Unknown modes are returned as-is; FamilyReactions rejects them.
func ParseMode(s string) Mode {
	return Mode(strings.ToLower(strings.TrimSpace(s)))
}

// TrainingSource lists the training reactions of a family in a stable order
type TrainingSource interface {
	TrainingEntries(family string) ([]*toolkit.Entry, error)
}

// FamilyReactions returns up to num training reactions of a family.
//
// A non-positive num, or one at least as large as the training set, returns
// every entry in source order. Otherwise num distinct entries are drawn
// uniformly with rng; a nil rng uses the global source.
func FamilyReactions(src TrainingSource, family string, num int, mode Mode, rng *rand.Rand) ([]*toolkit.Entry, error) {
	if mode != ModeTraining {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMode, string(mode))
	}

	entries, err := src.TrainingEntries(family)
	if err != nil {
		return nil, err
	}
	if num <= 0 || num >= len(entries) {
		return entries, nil
	}

	perm := rand.Perm
	if rng != nil {
		perm = rng.Perm
	}
	picked := make([]*toolkit.Entry, 0, num)
	for _, i := range perm(len(entries))[:num] {
		picked = append(picked, entries[i])
	}
	return picked, nil
}
