// Package format renders amounts, dates and statuses for display.
package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol is the display symbol of the Kenyan shilling.
const CurrencySymbol = "Ksh"

// DefaultLocale is used when a requested locale is not supported.
var DefaultLocale = language.MustParse("en-KE")

var (
	dateLocales = []language.Tag{
		DefaultLocale,
		language.BritishEnglish,
		language.AmericanEnglish,
		language.Swahili,
	}
	dateMatcher = language.NewMatcher(dateLocales)

	dateLayouts = map[language.Tag]string{
		DefaultLocale:            "02/01/2006",
		language.BritishEnglish:  "02/01/2006",
		language.AmericanEnglish: "1/2/2006",
		language.Swahili:         "02/01/2006",
	}

	currencyPrinter = message.NewPrinter(DefaultLocale)
)

// FormatCurrency renders whole shillings as "Ksh 35,000". Negative amounts render as "-Ksh 500".
func FormatCurrency(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + CurrencySymbol + " " + currencyPrinter.Sprintf("%d", amount)
}

// MatchLocale returns the supported date locale closest to locale, falling back to en-KE.
func MatchLocale(locale string) language.Tag {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return DefaultLocale
	}
	_, idx, conf := dateMatcher.Match(tag)
	if conf == language.No {
		return DefaultLocale
	}
	return dateLocales[idx]
}

// FormatDate renders an ISO date ("2024-07-05" or an RFC 3339 timestamp) in the locale's layout.
func FormatDate(isoDate, locale string) (string, error) {
	t, err := parseISO(isoDate)
	if err != nil {
		return "", err
	}
	return FormatTime(t, locale), nil
}

// FormatTime renders t as a calendar date in the locale's layout.
func FormatTime(t time.Time, locale string) string {
	return t.Format(dateLayouts[MatchLocale(locale)])
}

func parseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid ISO date %q", s)
}

// Formatter bundles display settings for one language and region.
type Formatter struct {
	Language string
	Region   string
}

// New creates a Formatter. Empty values take the en / en-KE defaults.
func New(lang, region string) Formatter {
	if lang == "" {
		lang = "en"
	}
	if region == "" {
		region = DefaultLocale.String()
	}
	return Formatter{Language: lang, Region: region}
}

// Currency renders an amount.
func (f Formatter) Currency(amount int64) string {
	return FormatCurrency(amount)
}

// Date renders an ISO date in the formatter's region.
func (f Formatter) Date(isoDate string) (string, error) {
	return FormatDate(isoDate, f.Region)
}

// Time renders t as a date in the formatter's region.
func (f Formatter) Time(t time.Time) string {
	return FormatTime(t, f.Region)
}
