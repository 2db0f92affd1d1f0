// Package pipeline runs one scheduled update: scrape, announce, commit.
package pipeline

import "github.com/researchaccelerator-hub/manga-notifier/model"

// Branches is the routing of one scrape result. Failures and Successes may
// both be set; NothingNew is set only when both are empty.
type Branches struct {
	Failures   []model.ScrapeFailure
	Successes  []model.ScrapeSuccess
	NothingNew bool
}

// Partition routes a scrape result to the error branch, the update branch,
// or the nothing-new branch.
func Partition(result model.ScrapeResult) Branches {
	return Branches{
		Failures:   result.Failures,
		Successes:  result.Successes,
		NothingNew: len(result.Failures) == 0 && len(result.Successes) == 0,
	}
}
