package dom

import (
	"context"
	"time"
)

func init() {
	wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
}
