package guides

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const searchButtonSelector = "#searchbutton"

// RendererConfig controls the headless page source.
type RendererConfig struct {
	UserAgent         string
	NavigationTimeout time.Duration
	// SettleDelay is how long to wait after load and after the search click.
	SettleDelay time.Duration
}

// Renderer loads registry pages in headless Chrome. The listing is filled in
// by script after the search form is submitted, so the renderer clicks the
// search button when the page has one.
type Renderer struct {
	cfg         RendererConfig
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewRenderer starts a Chrome allocator. Call Close to release it.
func NewRenderer(cfg RendererConfig) *Renderer {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = 2 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &Renderer{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close shuts down the browser allocator.
func (r *Renderer) Close() {
	r.allocCancel()
}

// FetchPage navigates to pageURL and returns the rendered DOM.
func (r *Renderer) FetchPage(ctx context.Context, pageURL string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(r.allocator)
	defer taskCancel()
	taskCtx, cancel := context.WithTimeout(taskCtx, r.cfg.NavigationTimeout)
	defer cancel()
	// Tie the browser tab to the caller as well as to the navigation timeout.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	actions := []chromedp.Action{
		r.setupAction(),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(r.cfg.SettleDelay),
		r.clickSearchAction(),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("render registry page: %w", err)
	}
	return html, nil
}

func (r *Renderer) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if r.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(r.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (r *Renderer) clickSearchAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var present bool
		probe := fmt.Sprintf("document.querySelector(%q) !== null", searchButtonSelector)
		if err := chromedp.Evaluate(probe, &present).Do(ctx); err != nil {
			return fmt.Errorf("probe search button: %w", err)
		}
		if !present {
			return nil
		}
		if err := chromedp.Click(searchButtonSelector, chromedp.ByQuery).Do(ctx); err != nil {
			return fmt.Errorf("click search button: %w", err)
		}
		return chromedp.Sleep(2 * r.cfg.SettleDelay).Do(ctx)
	})
}
