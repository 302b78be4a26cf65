package guides

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/metrics"
)

// Registry defaults.
const (
	DefaultBaseURL      = "https://huongdanvien.vn"
	DefaultListPath     = "/index.php/guide/cat/05"
	DefaultProvinceCode = "46"
	DefaultCardType     = "1"
)

// Config controls which registry listing is scraped and where it is exported.
type Config struct {
	BaseURL      string
	ListPath     string
	ProvinceCode string
	CardType     string
	ExportPrefix string
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ListPath == "" {
		c.ListPath = DefaultListPath
	}
	if c.ProvinceCode == "" {
		c.ProvinceCode = DefaultProvinceCode
	}
	if c.CardType == "" {
		c.CardType = DefaultCardType
	}
	if c.ExportPrefix == "" {
		c.ExportPrefix = "guides"
	}
	return c
}

// Export is the document written to the blob store.
type Export struct {
	Source    string                  `json:"source"`
	ScrapedAt time.Time               `json:"scrapedAt"`
	Guides    []directory.GuideRecord `json:"guides"`
}

// Result summarizes one scrape run.
type Result struct {
	Export Export
	URI    string
}

// Scraper fetches, parses and exports one province's registry listing.
type Scraper struct {
	cfg       Config
	source    PageSource
	provinces ProvinceResolver
	blobs     directory.BlobStore
	clock     directory.Clock
	logger    *zap.Logger
}

// NewScraper wires a Scraper. provinces and blobs may be nil; without a blob
// store Run only scrapes.
func NewScraper(cfg Config, source PageSource, provinces ProvinceResolver, blobs directory.BlobStore, clk directory.Clock, logger *zap.Logger) (*Scraper, error) {
	if source == nil {
		return nil, fmt.Errorf("page source is required")
	}
	if clk == nil {
		return nil, fmt.Errorf("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scraper{
		cfg:       cfg.withDefaults(),
		source:    source,
		provinces: provinces,
		blobs:     blobs,
		clock:     clk,
		logger:    logger,
	}, nil
}

// ListURL builds the registry search URL for the configured province and
// card type.
func (s *Scraper) ListURL() string {
	query := url.Values{}
	query.Set("tinh", s.cfg.ProvinceCode+", "+s.cfg.ProvinceCode)
	query.Set("loaithe", s.cfg.CardType)
	query.Set("ngoaingu", "")
	query.Set("name", "")
	query.Set("sothe", "")
	return strings.TrimRight(s.cfg.BaseURL, "/") + s.cfg.ListPath + "?" + encodeOrdered(query, "tinh", "loaithe", "ngoaingu", "name", "sothe")
}

// Scrape fetches and parses the listing.
func (s *Scraper) Scrape(ctx context.Context) (Export, error) {
	listURL := s.ListURL()
	pageURL, err := url.Parse(listURL)
	if err != nil {
		return Export{}, fmt.Errorf("parse list url: %w", err)
	}
	s.logger.Info("scraping guide registry", zap.String("url", listURL))
	page, err := s.source.FetchPage(ctx, listURL)
	if err != nil {
		return Export{}, err
	}
	records, err := ParseRegistry(page, pageURL, s.provinces)
	if err != nil {
		return Export{}, err
	}
	metrics.ObserveGuidesScraped(len(records))
	s.logger.Info("parsed guide registry", zap.Int("guides", len(records)))
	return Export{
		Source:    listURL,
		ScrapedAt: s.clock.Now().UTC(),
		Guides:    records,
	}, nil
}

// Run scrapes the listing and, when a blob store is configured, writes the
// export as JSON.
func (s *Scraper) Run(ctx context.Context) (Result, error) {
	export, err := s.Scrape(ctx)
	if err != nil {
		return Result{}, err
	}
	if s.blobs == nil {
		return Result{Export: export}, nil
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return Result{}, fmt.Errorf("marshal export: %w", err)
	}
	uri, err := s.blobs.PutObject(ctx, s.exportPath(export.ScrapedAt), "application/json", data)
	if err != nil {
		return Result{}, fmt.Errorf("write export: %w", err)
	}
	s.logger.Info("exported guide registry", zap.String("uri", uri), zap.Int("guides", len(export.Guides)))
	return Result{Export: export, URI: uri}, nil
}

func (s *Scraper) exportPath(at time.Time) string {
	return path.Join(s.cfg.ExportPrefix, s.cfg.ProvinceCode, at.UTC().Format("20060102T150405Z")+".json")
}

// The registry expects its query parameters in form order.
func encodeOrdered(values url.Values, keys ...string) string {
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(values.Get(key)))
	}
	return strings.Join(parts, "&")
}
