// Package metrics derives portfolio figures from records: occupancy, collection rates,
// outstanding balances and their ageing, VAT and withholding tax.
// Every function is pure; amounts are whole shillings rounded half-up.
package metrics

import (
	"errors"
	"time"

	"github.com/Lelcaren/mwangaza-rentals/internal/models"
	"github.com/shopspring/decimal"
)

// ErrDivisionUndefined is returned when a rate has a zero denominator.
var ErrDivisionUndefined = errors.New("division undefined: denominator is zero")

const (
	// DefaultVATRate is the Kenyan VAT rate applied to commercial lettings.
	DefaultVATRate = 0.16
	// DefaultWHTRate is the withholding tax rate on commercial rent.
	DefaultWHTRate = 0.10
)

// Bucket is an outstanding-balance ageing bucket.
type Bucket string

const (
	Bucket0To30  Bucket = "0-30"
	Bucket31To60 Bucket = "31-60"
	BucketOver60 Bucket = "60+"
)

// Buckets lists the ageing buckets in order.
func Buckets() []Bucket {
	return []Bucket{Bucket0To30, Bucket31To60, BucketOver60}
}

var hundred = decimal.NewFromInt(100)

// percent returns round(num/den*100) half-up.
func percent(num, den int64) (int, error) {
	if den == 0 {
		return 0, ErrDivisionUndefined
	}
	p := decimal.NewFromInt(num).Mul(hundred).Div(decimal.NewFromInt(den)).Round(0)
	return int(p.IntPart()), nil
}

// roundShillings returns round(amount*rate) half-up.
func roundShillings(amount int64, rate float64) int64 {
	return decimal.NewFromInt(amount).Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}

// OccupancyRate returns the percentage of occupied units.
func OccupancyRate(occupied, total int) (int, error) {
	return percent(int64(occupied), int64(total))
}

// PortfolioOccupancy is the occupancy rate across all properties.
func PortfolioOccupancy(properties []models.Property) (int, error) {
	var occupied, total int
	for _, p := range properties {
		occupied += p.OccupiedUnits
		total += p.TotalUnits
	}
	return OccupancyRate(occupied, total)
}

// CollectionRate returns the percentage of bills that are paid, by count.
func CollectionRate(paidBills, allBills int) (int, error) {
	return percent(int64(paidBills), int64(allBills))
}

// BillCollectionRate counts paid bills among bills.
func BillCollectionRate(bills []models.Bill) (int, error) {
	paid := 0
	for _, b := range bills {
		if b.Status == models.BillPaid {
			paid++
		}
	}
	return CollectionRate(paid, len(bills))
}

// AmountCollectionRate returns collected as a percentage of billed.
func AmountCollectionRate(collected, billed int64) (int, error) {
	return percent(collected, billed)
}

// OutstandingAmount sums the amount due of every bill that is not paid.
func OutstandingAmount(bills []models.Bill) int64 {
	var sum int64
	for _, b := range bills {
		if b.Status != models.BillPaid {
			sum += b.AmountDue()
		}
	}
	return sum
}

// TotalBilled sums the amount due of every bill.
func TotalBilled(bills []models.Bill) int64 {
	var sum int64
	for _, b := range bills {
		sum += b.AmountDue()
	}
	return sum
}

// DaysOverdue returns the whole days between the due date and asOf.
// It is zero or negative when the bill is not yet due.
func DaysOverdue(dueDate, asOf time.Time) int {
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	at := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(at.Sub(due).Hours() / 24)
}

// AgingBucket classifies an unpaid bill by days past due. Paid bills have no bucket.
func AgingBucket(bill models.Bill, asOf time.Time) (Bucket, bool) {
	if bill.Status == models.BillPaid {
		return "", false
	}

	days := DaysOverdue(time.Time(bill.DueDate), asOf)
	switch {
	case days <= 30:
		return Bucket0To30, true
	case days <= 60:
		return Bucket31To60, true
	default:
		return BucketOver60, true
	}
}

// AgingReport sums outstanding amounts per ageing bucket. Every bucket is present.
func AgingReport(bills []models.Bill, asOf time.Time) map[Bucket]int64 {
	out := make(map[Bucket]int64, 3)
	for _, b := range Buckets() {
		out[b] = 0
	}
	for _, bill := range bills {
		if bucket, ok := AgingBucket(bill, asOf); ok {
			out[bucket] += bill.AmountDue()
		}
	}
	return out
}

// VATAmount returns round(base * rate).
func VATAmount(base int64, rate float64) int64 {
	return roundShillings(base, rate)
}

// VATBase sums the selected components of a bill's charges.
func VATBase(charges models.Charges, components []models.Component) int64 {
	var base int64
	for _, c := range components {
		base += charges.Amount(c)
	}
	return base
}

// WithholdingTax returns round(commercialRentTotal * rate).
func WithholdingTax(commercialRentTotal int64, rate float64) int64 {
	return roundShillings(commercialRentTotal, rate)
}

// CommercialRentTotal sums the rent component of bills on commercial properties.
// Bills are matched to properties by PropertyID; a preloaded Property is used when present.
func CommercialRentTotal(bills []models.Bill, properties []models.Property) int64 {
	commercial := make(map[string]bool, len(properties))
	for _, p := range properties {
		commercial[p.ID] = p.IsCommercial()
	}

	var sum int64
	for _, b := range bills {
		isCommercial := b.Property != nil && b.Property.IsCommercial()
		if !isCommercial && b.PropertyID != nil {
			isCommercial = commercial[*b.PropertyID]
		}
		if isCommercial {
			sum += b.Rent
		}
	}
	return sum
}

// VATCollected sums the VAT of paid bills.
func VATCollected(bills []models.Bill) int64 {
	var sum int64
	for _, b := range bills {
		if b.Status == models.BillPaid && b.VAT != nil {
			sum += *b.VAT
		}
	}
	return sum
}

// TotalCollected sums completed payments.
func TotalCollected(payments []models.Payment) int64 {
	var sum int64
	for _, p := range payments {
		if p.Status == models.PaymentCompleted {
			sum += p.Amount
		}
	}
	return sum
}

// RevenueByMethod sums completed payments per payment method.
func RevenueByMethod(payments []models.Payment) map[models.PaymentMethod]int64 {
	out := map[models.PaymentMethod]int64{
		models.MethodMobileMoney: 0,
		models.MethodBank:        0,
		models.MethodCash:        0,
	}
	for _, p := range payments {
		if p.Status == models.PaymentCompleted {
			out[p.Method] += p.Amount
		}
	}
	return out
}
