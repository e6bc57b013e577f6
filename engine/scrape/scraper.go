package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/DriveScout/drivescout/engine/domain"
	"github.com/DriveScout/drivescout/pkg/fn"
	"github.com/DriveScout/drivescout/pkg/metrics"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	acceptLanguage   = "en-US,en;q=0.9"
)

// Config controls scraper behavior. Zero values take documented defaults.
type Config struct {
	// MaxResults caps how many detail pages are fetched per run. Default 20.
	MaxResults int
	// MaxPages bounds search-results pagination. Default 1.
	MaxPages int
	// PoliteDelay is the minimum interval between detail fetches. Default 1s.
	PoliteDelay time.Duration
	// Timeout applies to every outbound request. Default 20s.
	Timeout time.Duration
	// BaseURL overrides the target site root (tests).
	BaseURL string
	// UserAgent overrides the fixed request User-Agent.
	UserAgent string

	Metrics *metrics.Registry
	Logger  *slog.Logger
}

// Scraper runs the listing acquisition pipeline. Each Search invocation is
// independent: no retries, no persistent error state, its own visited set.
type Scraper struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
	log     *slog.Logger

	pagesFetched *metrics.Counter
	discovered   *metrics.Counter
	detailSkips  *metrics.Counter
	rejects      *metrics.Counter
}

// New creates a Scraper with the given config.
func New(cfg Config) *Scraper {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	if cfg.PoliteDelay <= 0 {
		cfg.PoliteDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = siteBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(cfg.PoliteDelay), 1),
		log:     cfg.Logger,

		pagesFetched: cfg.Metrics.Counter("scrape_search_pages_total", "search-results pages fetched"),
		discovered:   cfg.Metrics.Counter("scrape_listings_discovered_total", "unique detail URLs discovered"),
		detailSkips:  cfg.Metrics.Counter("scrape_detail_skips_total", "detail pages skipped on fetch/parse failure"),
		rejects:      cfg.Metrics.Counter("scrape_filter_rejects_total", "records dropped by the post-fetch criteria check"),
	}
}

// Search runs discovery then detail extraction for the given criteria.
// Discovery completes, is deduplicated, and is truncated to MaxResults
// before any detail page is fetched. An empty slice is a valid outcome;
// Search never returns an error to the caller.
func (s *Scraper) Search(ctx context.Context, c domain.Criteria) []domain.Listing {
	pipeline := fn.Then(
		fn.Traced("scrape.discover", func(ctx context.Context, c domain.Criteria) fn.Result[[]string] {
			return fn.Ok(s.discover(ctx, c))
		}),
		fn.Traced("scrape.details", func(ctx context.Context, urls []string) fn.Result[[]domain.Listing] {
			return fn.Ok(s.details(ctx, urls, c))
		}),
	)
	return pipeline(ctx, c).UnwrapOr(nil)
}

// discover harvests candidate detail URLs from search pages 1..MaxPages.
// A failed page fetch is logged and skipped. The returned slice is
// deduplicated by cleaned URL.
func (s *Scraper) discover(ctx context.Context, c domain.Criteria) []string {
	base := buildSearchURL(s.cfg.BaseURL, c)

	var urls []string
	for page := 1; page <= s.cfg.MaxPages; page++ {
		pageURL := fmt.Sprintf("%spage=%d", base, page)
		html, err := s.get(ctx, pageURL).Unwrap()
		if err != nil {
			s.log.Warn("search page fetch failed", "url", pageURL, "err", err)
			continue
		}
		s.pagesFetched.Inc()

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			s.log.Warn("search page parse failed", "url", pageURL, "err", err)
			continue
		}
		urls = append(urls, s.harvest(doc)...)
	}

	unique := fn.Unique(urls)
	s.discovered.Add(int64(len(unique)))
	s.log.Info("discovery complete", "unique_urls", len(unique), "pages", s.cfg.MaxPages)
	return unique
}

// harvest pulls detail links out of listing cards on one search page.
// Query strings are stripped so listings dedup by canonical URL.
func (s *Scraper) harvest(doc *goquery.Document) []string {
	var out []string
	doc.Find(`div[class*="listing-card"]`).Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Find("a[href]").First().Attr("href")
		if !ok || !strings.Contains(href, detailMarker) {
			return
		}
		href = strings.SplitN(href, "?", 2)[0]
		if !strings.HasPrefix(href, "http") {
			href = s.cfg.BaseURL + href
		}
		out = append(out, href)
	})
	return out
}

// details fetches each candidate detail page sequentially behind the
// politeness limiter, applies the post-fetch criteria check, and collects
// whatever valid subset it can. Per-URL failures never abort the run.
func (s *Scraper) details(ctx context.Context, urls []string, c domain.Criteria) []domain.Listing {
	if len(urls) > s.cfg.MaxResults {
		urls = urls[:s.cfg.MaxResults]
	}

	var fetched []domain.Listing
	for i, u := range urls {
		if err := s.limiter.Wait(ctx); err != nil {
			s.log.Warn("pipeline cancelled", "err", err)
			break
		}

		listing, err := s.detail(ctx, u)
		if err != nil {
			s.detailSkips.Inc()
			s.log.Warn("detail page skipped", "url", u, "err", err)
			continue
		}
		fetched = append(fetched, listing)
		s.log.Info("listing scraped",
			"name", listing.Name,
			"price", listing.Price,
			"mileage", listing.Mileage,
			"progress", fmt.Sprintf("%d/%d", i+1, len(urls)),
		)
	}

	kept := fn.Filter(fetched, func(l domain.Listing) bool { return matchesCriteria(l, c) })
	s.rejects.Add(int64(len(fetched) - len(kept)))
	return kept
}

func (s *Scraper) detail(ctx context.Context, url string) (domain.Listing, error) {
	html, err := s.get(ctx, url).Unwrap()
	if err != nil {
		return domain.Listing{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.Listing{}, fmt.Errorf("parse %s: %w", url, err)
	}
	return parseDetail(doc, url), nil
}

func (s *Scraper) get(ctx context.Context, url string) fn.Result[string] {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fn.Err[string](err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	resp, err := s.client.Do(req)
	if err != nil {
		return fn.Err[string](err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fn.Errf[string]("unexpected status %d from %s", resp.StatusCode, url)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fn.Errf[string]("read body: %w", err)
	}
	return fn.Ok(string(body))
}
