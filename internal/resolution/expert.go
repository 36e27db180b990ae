package resolution

// resolveExpertReview is a terminal hand-off, not an automatic
// strategy: it always reports a failed attempt marked as requiring
// manual input, so callers know not to retry it automatically. The
// actual expert decision arrives out of band.
func resolveExpertReview(rctx Context) Result {
	description := "awaiting expert decision"
	if rctx.Conflict.AssignedResolver != nil {
		description = "awaiting expert decision from " + *rctx.Conflict.AssignedResolver
	}
	return Result{
		Status:      Failed,
		Strategy:    StrategyExpertReview,
		Reason:      ReasonManualInputRequired,
		Description: description,
	}
}
