package format

import (
	"regexp"
	"strings"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)\}`)

// RenderTemplate substitutes {key} placeholders with values.
// Placeholders without a value are left verbatim and reported in missing, in first-seen order.
func RenderTemplate(tmpl string, values map[string]string) (rendered string, missing []string) {
	seen := make(map[string]bool)
	rendered = placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		key := m[1 : len(m)-1]
		if v, ok := values[key]; ok {
			return v
		}
		if !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
		return m
	})
	return rendered, missing
}

// Placeholders lists the distinct placeholder keys of a template in first-seen order.
func Placeholders(tmpl string) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			keys = append(keys, m[1])
		}
	}
	return keys
}

// Template is a reusable notification message.
type Template struct {
	Key       string                  `json:"key"`
	Name      string                  `json:"name"`
	Channel   models.NotificationType `json:"channel"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	Variables []string                `json:"variables"`
}

// Render fills the template body and title.
func (t Template) Render(values map[string]string) (title, body string, missing []string) {
	title, _ = RenderTemplate(t.Title, values)
	body, missing = RenderTemplate(t.Body, values)
	return title, body, missing
}

const (
	TemplateRentDue             = "rent_due"
	TemplatePaymentOverdue      = "payment_overdue"
	TemplatePaymentConfirmation = "payment_confirmation"
	TemplateLeaseRenewal        = "lease_renewal"
	TemplateMaintenance         = "maintenance"
)

var builtinTemplates = []Template{
	{
		Key:     TemplateRentDue,
		Name:    "Rent Due Reminder",
		Channel: models.ChannelSMS,
		Title:   "Rent due for {month}",
		Body:    "Hujambo {tenant_name}, Rent yako ya {month} ni KES {amount}. Lipa kwa M-Pesa PayBill 123456 kabla ya {due_date}. Asante.",
	},
	{
		Key:     TemplatePaymentOverdue,
		Name:    "Payment Overdue",
		Channel: models.ChannelSMS,
		Title:   "Payment overdue",
		Body:    "URGENT: {tenant_name}, your rent payment of KES {amount} is {days_overdue} days overdue. Please pay immediately to avoid late fees.",
	},
	{
		Key:     TemplatePaymentConfirmation,
		Name:    "Payment Confirmation",
		Channel: models.ChannelSMS,
		Title:   "Payment received",
		Body:    "Thank you {tenant_name}! We have received your payment of KES {amount} for {property}. Receipt: {receipt_number}",
	},
	{
		Key:     TemplateLeaseRenewal,
		Name:    "Lease Renewal",
		Channel: models.ChannelEmail,
		Title:   "Lease renewal for {property}",
		Body:    "Dear {tenant_name}, Your lease for {property} expires on {lease_end}. Please contact us to discuss renewal terms.",
	},
	{
		Key:     TemplateMaintenance,
		Name:    "Maintenance Notice",
		Channel: models.ChannelWhatsApp,
		Title:   "Scheduled maintenance at {property}",
		Body:    "Notice: Scheduled maintenance at {property} on {date} from {time}. Please ensure access to your unit.",
	},
}

// Templates returns the built-in templates with their variables filled in.
func Templates() []Template {
	out := make([]Template, len(builtinTemplates))
	for i, t := range builtinTemplates {
		t.Variables = Placeholders(t.Title + " " + t.Body)
		out[i] = t
	}
	return out
}

// LookupTemplate finds a built-in template by key.
func LookupTemplate(key string) (Template, bool) {
	key = strings.TrimSpace(key)
	for _, t := range Templates() {
		if t.Key == key {
			return t, true
		}
	}
	return Template{}, false
}

// Amount renders a shilling amount the way templates expect it after "KES": digits with separators.
func Amount(amount int64) string {
	return currencyPrinter.Sprintf("%d", amount)
}
