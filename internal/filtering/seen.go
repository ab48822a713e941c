package filtering

import (
	"context"

	"github.com/spigell/easy-applier/internal/listing"
)

// SeenSet is the set of posting URLs already handled in the current run.
type SeenSet interface {
	Seen(url string) bool
}

type seenFilter struct {
	toggle
	seen SeenSet
}

// NewSeen rejects postings already handled in this run. It belongs at the
// head of the chain.
func NewSeen(seen SeenSet) Filter {
	return &seenFilter{seen: seen}
}

func (f *seenFilter) Name() string { return "seen" }

func (f *seenFilter) Stage() Stage { return StageScan }

func (f *seenFilter) Validate() error { return nil }

func (f *seenFilter) Apply(_ context.Context, posting *listing.Posting) (Verdict, error) {
	if f.seen != nil && f.seen.Seen(posting.URL) {
		return reject("already handled in this run"), nil
	}
	return admit(), nil
}
