// Package scheduler discovers promotion candidates in the staging
// environment and paces their promotion over time.
//
// A batch run scans for processed, unpromoted records past the grace
// period, promotes up to a configured cap strictly sequentially, emits one
// summary notification, and registers a single one-shot follow-up run when
// candidates remain. There is no persisted cursor: every run re-scans, and
// already-promoted artifacts are excluded solely by the promotion marker.
package scheduler
