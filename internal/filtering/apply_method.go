package filtering

import (
	"context"
	"strings"

	"github.com/spigell/easy-applier/internal/listing"
)

// EasyApplyMethod is the apply method of postings the applier can handle.
const EasyApplyMethod = "easy apply"

type applyMethodFilter struct {
	toggle
}

// NewApplyMethod rejects postings that are known to use an external apply
// flow. Postings with an unknown method pass; the state machine reports them
// as having no apply flow.
func NewApplyMethod() Filter {
	return &applyMethodFilter{}
}

func (f *applyMethodFilter) Name() string { return "apply_method" }

func (f *applyMethodFilter) Stage() Stage { return StageScan }

func (f *applyMethodFilter) Validate() error { return nil }

func (f *applyMethodFilter) Apply(_ context.Context, posting *listing.Posting) (Verdict, error) {
	method := strings.ToLower(strings.TrimSpace(posting.ApplyMethod))
	if method == "" || strings.Contains(method, EasyApplyMethod) {
		return admit(), nil
	}
	return reject("it is impossible to apply with method %q", posting.ApplyMethod), nil
}
