package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gaugefetch/gaugefetch/internal/config"
	"github.com/gaugefetch/gaugefetch/internal/extract"
	"github.com/gaugefetch/gaugefetch/internal/metric"
)

const (
	// defaultFetchTimeout bounds one outbound request so a stuck endpoint
	// cannot hold its scrape goroutine forever.
	defaultFetchTimeout = 10 * time.Second

	// userAgent identifies gaugefetch to the endpoints it polls. A target
	// header of the same name takes precedence.
	userAgent = "gaugefetch/1.0 (+https://github.com/gaugefetch/gaugefetch)"
)

// Target is a configured target together with its compiled rules.
// Immutable after Setup; the mutex only serializes in-flight scrapes.
type Target struct {
	cfg   config.Target
	rules []compiledRule

	inflight sync.Mutex
}

type compiledRule struct {
	name string
	ex   *extract.Extractor
}

// Setup compiles every rule of cfg. It must be called once per target before
// the first scrape; a compile failure signals a configuration defect and the
// caller is expected to abort startup.
func Setup(cfg config.Target) (*Target, error) {
	slog.Info("setting up extractors", "target", cfg.Name, "rules", len(cfg.Rules))
	t := &Target{cfg: cfg}
	for _, r := range cfg.Rules {
		ex, err := extract.Compile(extract.Kind(cfg.Extractor), r.Extract)
		if err != nil {
			return nil, fmt.Errorf("target %q: rule %q: %w", cfg.Name, r.Name, err)
		}
		t.rules = append(t.rules, compiledRule{name: r.Name, ex: ex})
	}
	return t, nil
}

// Name returns the target's configured name.
func (t *Target) Name() string { return t.cfg.Name }

// Cron returns the target's schedule expression.
func (t *Target) Cron() string { return t.cfg.Cron }

// Pipeline executes scrapes and commits their results to the store.
// Safe for concurrent use across targets.
type Pipeline struct {
	client *http.Client
	store  *metric.Store
	now    func() time.Time // injectable for deterministic tests
}

// NewPipeline creates a Pipeline writing to st. A nil client gets a default
// one with a bounded request timeout.
func NewPipeline(st *metric.Store, client *http.Client) *Pipeline {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	return &Pipeline{client: client, store: st, now: time.Now}
}

// Register creates the store slots for every rule of t, in rule order.
// Call once per target before scheduling so /metrics renders targets in
// configuration order from the first scrape on.
func (p *Pipeline) Register(t *Target) {
	for _, r := range t.rules {
		p.store.Register(t.cfg.Name, r.name)
	}
}

// Scrape fetches the target once and commits each rule's results.
//
// A fetch failure (transport error, non-2xx status, unreadable body) aborts
// the whole scrape and leaves every rule of the target untouched. A rule
// failure is logged and isolated — sibling rules still commit. A rule that
// succeeds with zero metrics keeps its previous results.
//
// If a previous scrape of the same target is still running, Scrape logs the
// overlap, skips this firing and returns nil.
func (p *Pipeline) Scrape(ctx context.Context, t *Target) error {
	if !t.inflight.TryLock() {
		slog.Warn("scrape still in flight — skipping firing", "target", t.cfg.Name)
		return nil
	}
	defer t.inflight.Unlock()

	body, err := p.fetch(ctx, t)
	if err != nil {
		return fmt.Errorf("scrape %q: %w", t.cfg.Name, err)
	}

	at := p.now()
	for _, r := range t.rules {
		ms, err := r.ex.Extract(r.name, body, at)
		if err != nil {
			slog.Warn("rule extraction failed — keeping previous results",
				"target", t.cfg.Name, "rule", r.name, "err", err)
			continue
		}
		p.store.Replace(t.cfg.Name, r.name, ms)
		slog.Debug("rule committed", "target", t.cfg.Name, "rule", r.name, "series", len(ms))
	}
	return nil
}

// fetch performs the outbound GET and returns the response body as text.
func (p *Pipeline) fetch(ctx context.Context, t *Target) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}
