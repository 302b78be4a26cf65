package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
	"github.com/sotaychohdv/hdv-functions/internal/guides"
	"github.com/sotaychohdv/hdv-functions/internal/huefeed"
	"github.com/sotaychohdv/hdv-functions/internal/notify"
)

type fakeFeed struct {
	feed huefeed.Feed
	err  error
}

func (f fakeFeed) Fetch(context.Context) (huefeed.Feed, error) {
	return f.feed, f.err
}

type fakeApp struct {
	feed    fakeFeed
	report  notify.ScanReport
	result  guides.Result
	ran     bool
	closed  bool
	scanErr error
}

func (a *fakeApp) Run(context.Context) error { a.ran = true; return nil }
func (a *fakeApp) Close() error              { a.closed = true; return nil }
func (a *fakeApp) Feed() huefeed.Fetcher     { return a.feed }
func (a *fakeApp) ScanExpiring(context.Context) (notify.ScanReport, error) {
	return a.report, a.scanErr
}
func (a *fakeApp) ScrapeGuides(context.Context) (guides.Result, error) {
	return a.result, nil
}

// withApp swaps the factory; tests using it must not run in parallel.
func withApp(t *testing.T, app *fakeApp, factoryErr error) *string {
	t.Helper()
	var gotPath string
	orig := newApp
	newApp = func(_ context.Context, cfgPath string) (App, error) {
		gotPath = cfgPath
		if factoryErr != nil {
			return nil, factoryErr
		}
		return app, nil
	}
	t.Cleanup(func() { newApp = orig })
	return &gotPath
}

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFeedCommandPrintsJSON(t *testing.T) {
	app := &fakeApp{feed: fakeFeed{feed: huefeed.Feed{Source: "https://sdl.hue.gov.vn", Articles: []huefeed.Article{}}}}
	cfgPath := withApp(t, app, nil)

	out, err := execute("feed", "--config", "hdv.yaml")
	require.NoError(t, err)
	require.JSONEq(t, `{"source":"https://sdl.hue.gov.vn","articles":[]}`, out)
	require.Equal(t, "hdv.yaml", *cfgPath)
	require.True(t, app.closed)
}

func TestFeedCommandPropagatesErrors(t *testing.T) {
	withApp(t, &fakeApp{feed: fakeFeed{err: huefeed.ErrSessionNegotiationFailed}}, nil)

	_, err := execute("feed")
	require.ErrorIs(t, err, huefeed.ErrSessionNegotiationFailed)
}

func TestServeCommandRunsApp(t *testing.T) {
	app := &fakeApp{}
	withApp(t, app, nil)

	_, err := execute("serve")
	require.NoError(t, err)
	require.True(t, app.ran)
	require.True(t, app.closed)
}

func TestGuidesCommandReportsExport(t *testing.T) {
	withApp(t, &fakeApp{result: guides.Result{
		Export: guides.Export{
			Source: "https://huongdanvien.vn/index.php/guide/cat/05",
			Guides: []directory.GuideRecord{{FullName: "A", CardNumber: "1"}},
		},
		URI: "memory://guides/46/x.json",
	}}, nil)

	out, err := execute("guides")
	require.NoError(t, err)
	require.Contains(t, out, "Scraped 1 guides")
	require.Contains(t, out, "memory://guides/46/x.json")
}

func TestExpiringCommandPrintsReport(t *testing.T) {
	withApp(t, &fakeApp{report: notify.ScanReport{
		Scanned: 3,
		Sent:    1,
		Expiring: []notify.ExpiringGuide{
			{UID: "g1", FullName: "Nguyễn Văn An", CardNumber: "146123", ExpiryDate: "1/4/2025", DaysLeft: 10, Notified: true},
		},
	}}, nil)

	out, err := execute("expiring")
	require.NoError(t, err)
	require.Contains(t, out, "Nguyễn Văn An")
	require.Contains(t, out, "scanned=3 expiring=1 sent=1 failed=0")
}

func TestExpiringCommandPropagatesErrors(t *testing.T) {
	withApp(t, &fakeApp{scanErr: errors.New("db down")}, nil)

	_, err := execute("expiring")
	require.ErrorContains(t, err, "db down")
}

func TestAppFactoryFailure(t *testing.T) {
	withApp(t, nil, errors.New("bad config"))

	_, err := execute("feed")
	require.ErrorContains(t, err, "failed to initialize application services")
}
