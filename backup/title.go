// Package backup archives bulk-deleted messages as numbered embeds.
package backup

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoSequence is returned when a title carries no backup number.
var ErrNoSequence = errors.New("no backup sequence in title")

const titlePrefix = "Backup n°"

var titlePattern = regexp.MustCompile(`n°\s*(\d+)`)

// FormatTitle renders the canonical title, e.g. "Backup n°43".
func FormatTitle(seq int) string {
	return fmt.Sprintf("%s%d", titlePrefix, seq)
}

// ParseSequence extracts the backup number from a title. The canonical
// "n°<digits>" form is tried first, then the first word that reads as a
// non-negative integer once a leading "n°" or "#" is removed.
func ParseSequence(title string) (int, error) {
	if m := titlePattern.FindStringSubmatch(title); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, nil
		}
	}

	for _, word := range strings.Fields(title) {
		word = strings.TrimPrefix(word, "n°")
		word = strings.TrimPrefix(word, "#")
		word = strings.TrimRight(word, ".,:;)")
		if word == "" || strings.HasPrefix(word, "-") || strings.HasPrefix(word, "+") {
			continue
		}
		if n, err := strconv.Atoi(word); err == nil {
			return n, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrNoSequence, title)
}
