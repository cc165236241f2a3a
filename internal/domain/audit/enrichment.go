package audit

import (
	"context"

	"supplytrack/internal/core/appctx"
)

// EnrichCreatedBy stamps both attribution fields from the request user.
// Anonymous requests leave them untouched.
func EnrichCreatedBy(ctx context.Context, createdBy, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID == "" || createdBy == nil || updatedBy == nil {
		return
	}
	*createdBy = userID
	*updatedBy = userID
}

// EnrichUpdatedBy stamps only the updater field.
func EnrichUpdatedBy(ctx context.Context, updatedBy *string) {
	userID := appctx.GetUserID(ctx)
	if userID == "" || updatedBy == nil {
		return
	}
	*updatedBy = userID
}
