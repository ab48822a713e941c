package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/easy-applier/internal/listing"
)

type excludeFileFilter struct {
	toggle
	path     string
	excluded map[string]struct{}
}

// NewExcludeFile creates a filter that removes postings contained in the
// exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{
		path: strings.TrimSpace(path),
	}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Stage() Stage { return StageScan }

func (f *excludeFileFilter) Validate() error {
	if f.path == "" {
		return nil
	}

	excluded, err := listing.LoadExcluded(f.path)
	if err != nil {
		return fmt.Errorf("getting excluded postings from file: %w", err)
	}
	f.excluded = excluded.URLs()
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, posting *listing.Posting) (Verdict, error) {
	if _, ok := f.excluded[listing.CanonicalURL(posting.URL)]; ok {
		return reject("listed in exclude file %s", f.path), nil
	}
	return admit(), nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Stage: f.Stage().String(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
