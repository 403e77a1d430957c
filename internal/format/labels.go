package format

import (
	"fmt"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

var (
	labelLanguages = []language.Tag{language.English, language.Swahili}
	labelMatcher   = language.NewMatcher(labelLanguages)
	labelCatalog   = buildLabelCatalog()
)

var labels = map[language.Tag]map[string]string{
	language.English: {
		"property.active":      "Active",
		"property.maintenance": "Maintenance",
		"property.inactive":    "Inactive",
		"tenant.current":       "Current",
		"tenant.overdue":       "Overdue",
		"tenant.pending":       "Pending",
		"bill.paid":            "Paid",
		"bill.pending":         "Pending",
		"bill.overdue":         "Overdue",
		"payment.completed":    "Completed",
		"payment.pending":      "Pending",
		"payment.failed":       "Failed",
		"delivery.sent":        "Sent",
		"delivery.pending":     "Pending",
		"delivery.failed":      "Failed",
	},
	language.Swahili: {
		"property.active":      "Inatumika",
		"property.maintenance": "Matengenezo",
		"property.inactive":    "Haitumiki",
		"tenant.current":       "Umefuata Tarehe",
		"tenant.overdue":       "Umechelewa",
		"tenant.pending":       "Inasubiri",
		"bill.paid":            "Imelipwa",
		"bill.pending":         "Inasubiri",
		"bill.overdue":         "Imechelewa",
		"payment.completed":    "Imekamilika",
		"payment.pending":      "Inasubiri",
		"payment.failed":       "Imeshindikana",
		"delivery.sent":        "Imetumwa",
		"delivery.pending":     "Inasubiri",
		"delivery.failed":      "Imeshindikana",
	},
}

func buildLabelCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for tag, entries := range labels {
		for key, msg := range entries {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(fmt.Sprintf("format: invalid label %s/%s: %v", tag, key, err))
			}
		}
	}
	return b
}

// MatchLanguage returns the supported label language closest to lang, falling back to English.
func MatchLanguage(lang string) language.Tag {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English
	}
	_, idx, conf := labelMatcher.Match(tag)
	if conf == language.No {
		return language.English
	}
	return labelLanguages[idx]
}

func statusKind(s models.Status) string {
	switch s.(type) {
	case models.PropertyStatus:
		return "property"
	case models.TenantStatus:
		return "tenant"
	case models.BillStatus:
		return "bill"
	case models.PaymentStatus:
		return "payment"
	case models.DeliveryStatus:
		return "delivery"
	}
	return ""
}

// StatusLabel returns the display label of a status in lang ("en" or "sw").
// Unknown statuses fail with models.ErrUnknownStatus.
func StatusLabel(s models.Status, lang string) (string, error) {
	if _, err := models.StatusToCategory(s); err != nil {
		return "", err
	}
	key := statusKind(s) + "." + s.String()
	p := message.NewPrinter(MatchLanguage(lang), message.Catalog(labelCatalog))
	return p.Sprintf(message.Key(key, s.String())), nil
}

// StatusLabel returns the display label of a status in the formatter's language.
func (f Formatter) StatusLabel(s models.Status) (string, error) {
	return StatusLabel(s, f.Language)
}
