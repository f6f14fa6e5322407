package apperr

import (
	"context"

	"github.com/m-mizutani/ctxlog"
)

// Handle reports an error that the caller absorbs rather than returns,
// such as a failed notification delivery. The error is logged through the
// request-scoped logger and execution continues.
func Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}
	ctxlog.From(ctx).Error("absorbed error", "error", err)
}
