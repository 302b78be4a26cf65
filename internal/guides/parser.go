package guides

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/sotaychohdv/hdv-functions/internal/directory"
)

// DefaultIssuingPlace is assumed when a registry entry omits "Nơi cấp".
const DefaultIssuingPlace = "Thừa Thiên Huế"

const (
	entrySelector      = "div.col-lg-12"
	nameLabel          = "Họ và tên:"
	cardNumberLabel    = "Số thẻ:"
	issuingPlaceLabel  = "Nơi cấp:"
	expiryDateLabel    = "Ngày hết hạn:"
	languagesLabel     = "Ngoại ngữ:"
	phoneLabel         = "Điện thoại:"
	emailLabel         = "Email:"
	internationalLabel = "Quốc tế"
)

// ProvinceResolver maps a free-text place name onto a canonical province.
type ProvinceResolver interface {
	Resolve(raw string) string
}

// ParseRegistry extracts guide records from a rendered registry listing.
// Entries without a name or card number are skipped. Photo URLs are resolved
// against pageURL. provinces may be nil.
func ParseRegistry(page string, pageURL *url.URL, provinces ProvinceResolver) ([]directory.GuideRecord, error) {
	records := []directory.GuideRecord{}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse registry page: %w", err)
	}
	doc.Find(entrySelector).Each(func(_ int, entry *goquery.Selection) {
		if !strings.Contains(entry.Text(), nameLabel) {
			return
		}
		record, ok := parseEntry(entry, pageURL)
		if !ok {
			return
		}
		if provinces != nil {
			record.Province = provinces.Resolve(record.IssuingPlace)
		}
		records = append(records, record)
	})
	return records, nil
}

func parseEntry(entry *goquery.Selection, pageURL *url.URL) (directory.GuideRecord, bool) {
	cells := entry.Find("td")
	field := func(label string) string {
		for i := 0; i < cells.Length()-1; i++ {
			if strings.Contains(cells.Eq(i).Text(), label) {
				return cleanText(cells.Eq(i + 1).Text())
			}
		}
		return ""
	}

	record := directory.GuideRecord{
		FullName:     field(nameLabel),
		CardNumber:   field(cardNumberLabel),
		IssuingPlace: field(issuingPlaceLabel),
		CardType:     directory.CardTypeDomestic,
		ExpiryDate:   field(expiryDateLabel),
		Languages:    splitLanguages(field(languagesLabel)),
		Phone:        field(phoneLabel),
		Email:        field(emailLabel),
	}
	if record.FullName == "" || record.CardNumber == "" {
		return directory.GuideRecord{}, false
	}
	if record.IssuingPlace == "" {
		record.IssuingPlace = DefaultIssuingPlace
	}
	if header := entry.Prev(); header.Length() > 0 && strings.Contains(header.Text(), internationalLabel) {
		record.CardType = directory.CardTypeInternational
	}
	if src, ok := entry.Find("img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		record.PhotoURL = absoluteURL(pageURL, src)
	}
	return record, true
}

func splitLanguages(raw string) []string {
	languages := []string{}
	for _, part := range strings.Split(raw, ",") {
		if lang := strings.TrimSpace(part); lang != "" {
			languages = append(languages, lang)
		}
	}
	return languages
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func absoluteURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil {
		return ref
	}
	resolved, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return resolved.String()
}
