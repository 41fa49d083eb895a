package ledger

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/UDANA333/joy-cookies-cupcakes-sub000/internal/models"
)

var validate = validator.New()

var phonePattern = regexp.MustCompile(`^(\(\d{3}\) ?\d{3}-\d{4}|\d{3}-\d{3}-\d{4}|\d{3}\.\d{3}\.\d{4}|\d{10})$`)

// totalTolerance is how far a submitted total may drift from the item sum.
var totalTolerance = decimal.RequireFromString("0.01")

// ValidPhone reports whether s is a US number in one of the accepted layouts.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

func ValidEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

type CreateOrderInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	PickupDate    string
	PickupTime    string
	Items         []models.OrderItem
	Total         float64
	PaymentMethod string
}

// normalize trims input, validates it and returns the server-side total.
func (in *CreateOrderInput) normalize() (decimal.Decimal, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.PickupDate = strings.TrimSpace(in.PickupDate)
	in.PickupTime = strings.TrimSpace(in.PickupTime)
	in.PaymentMethod = strings.TrimSpace(in.PaymentMethod)

	if !ValidEmail(in.CustomerEmail) {
		return decimal.Zero, invalid("customerEmail", "a valid email address is required")
	}
	if in.CustomerPhone != "" && !ValidPhone(in.CustomerPhone) {
		return decimal.Zero, invalid("customerPhone", "must be a US phone number like (555) 123-4567")
	}
	if _, err := time.Parse("2006-01-02", in.PickupDate); err != nil {
		return decimal.Zero, invalid("pickupDate", "must be a date in YYYY-MM-DD form")
	}
	if in.PickupTime == "" {
		return decimal.Zero, invalid("pickupTime", "is required")
	}
	if len(in.Items) == 0 {
		return decimal.Zero, invalid("items", "at least one item is required")
	}

	sum := decimal.Zero
	for i := range in.Items {
		it := &in.Items[i]
		it.ID = strings.TrimSpace(it.ID)
		it.Name = strings.TrimSpace(it.Name)
		it.Category = strings.TrimSpace(it.Category)

		if it.Name == "" {
			return decimal.Zero, invalid("items", "item %d has no name", i+1)
		}
		if it.Price <= 0 {
			return decimal.Zero, invalid("items", "%s must have a positive price", it.Name)
		}
		if it.Quantity < 1 {
			return decimal.Zero, invalid("items", "%s must have a quantity of at least 1", it.Name)
		}
		for j := range it.BoxItems {
			it.BoxItems[j].Name = strings.TrimSpace(it.BoxItems[j].Name)
			if it.BoxItems[j].Name == "" {
				return decimal.Zero, invalid("items", "%s contains an unnamed box item", it.Name)
			}
		}
		sum = sum.Add(decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	sum = sum.Round(2)

	if in.Total < 0 {
		return decimal.Zero, invalid("total", "must not be negative")
	}
	if sum.Sub(decimal.NewFromFloat(in.Total)).Abs().GreaterThan(totalTolerance) {
		return decimal.Zero, invalid("total", "does not match items (expected %s)", sum.StringFixed(2))
	}

	if in.PaymentMethod == "" {
		in.PaymentMethod = string(models.PaymentPending)
	} else if m, ok := CanonicalMethod(in.PaymentMethod); ok {
		in.PaymentMethod = m
	}
	return sum, nil
}

// MoneyConsistent checks the balance invariant: a paid order owes nothing, and
// a partially paid order's deposit plus balance equals its total.
func MoneyConsistent(o models.Order) bool {
	remaining := decimal.NewFromFloat(o.RemainingBalance)
	if o.PaymentStatus == models.PaymentPaid {
		return remaining.IsZero()
	}
	deposit := decimal.NewFromFloat(o.DepositAmount)
	if deposit.IsPositive() && remaining.IsPositive() {
		return deposit.Add(remaining).Sub(decimal.NewFromFloat(o.Total)).Abs().LessThanOrEqual(totalTolerance)
	}
	return true
}
