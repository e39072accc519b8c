// Package sched wraps the cron scheduler that drives scrape firings. Each
// target gets one entry; firings run in their own goroutine, so targets never
// block each other. Expressions accept an optional leading seconds field and
// descriptors such as "@every 30s" or "@hourly". An unparsable expression is
// rejected at registration time — before anything is scheduled — so a bad
// schedule is a startup failure, not a silent no-op.
package sched
