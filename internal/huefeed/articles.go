package huefeed

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	itemSelector    = ".items"
	linkSelector    = ".listitems_other_right .line-clamp-2 a"
	summarySelector = ".listitems_other_right .line-clamp-2 .desc"
	dateSelector    = ".card-text"
	imageSelector   = ".article-thumbnail img"
)

// ParseArticles extracts every article item from a listing fragment in
// document order. Items without a title link are skipped. Links and images
// are resolved against base. The result is not capped.
func ParseArticles(fragment string, base *url.URL) ([]Article, error) {
	articles := []Article{}
	if fragment == "" {
		return articles, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	doc.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		link := item.Find(linkSelector).First()
		if link.Length() == 0 {
			return
		}
		href, _ := link.Attr("href")
		if href == "" {
			href = "#"
		}
		article := Article{
			Title:       NormalizeText(link.Text()),
			URL:         resolveURL(base, href),
			Summary:     NormalizeText(item.Find(summarySelector).Text()),
			PublishedAt: NormalizeText(item.Find(dateSelector).Text()),
		}
		if src, ok := item.Find(imageSelector).Attr("src"); ok && src != "" {
			image := resolveURL(base, src)
			article.ImageURL = &image
		}
		articles = append(articles, article)
	})
	return articles, nil
}

// NormalizeText collapses every run of whitespace to one space and trims the ends.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	resolved, err := base.Parse(ref)
	if err != nil {
		// Unparseable references get the same placeholder as a missing href.
		resolved, _ = base.Parse("/")
		return resolved.String() + "#"
	}
	if resolved.Opaque == "" && resolved.Path == "" {
		resolved.Path = "/"
	}
	out := resolved.String()
	// url.URL drops an empty fragment; keep the bare "#" placeholder visible.
	if strings.HasSuffix(ref, "#") && !strings.HasSuffix(out, "#") {
		out += "#"
	}
	return out
}
