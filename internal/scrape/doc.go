// Package scrape runs the fetch → extract → commit pipeline for one target.
// The fetch and the extraction run entirely outside the store lock; only the
// final per-rule commit touches shared state. A failed fetch aborts the whole
// target without touching the store; a failed rule is logged and skipped so
// its siblings still commit.
//
// Each target allows at most one in-flight scrape. A firing that overlaps a
// still-running scrape of the same target is skipped, keeping the cron
// cadence as an upper bound on request rate even against slow endpoints.
package scrape
