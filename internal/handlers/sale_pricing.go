package handlers

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	errSalePriceRequired = errors.New("salePrice is required when saleEnabled is true")
	errSalePricePositive = errors.New("salePrice must be greater than 0")
	errSalePriceTooHigh  = errors.New("salePrice must be less than price")
)

// salePricing is the pricing state of a catalog product. A sale only applies
// while it is enabled and strictly cheaper than the list price.
type salePricing struct {
	Price     float64
	Enabled   bool
	SalePrice float64
}

// salePatch carries the pricing fields of a partial product update.
type salePatch struct {
	Price     *float64
	Enabled   *bool
	SalePrice *float64
}

// saleChange is the resolved pricing plus which sale columns must be written.
type saleChange struct {
	salePricing
	WriteEnabled   bool
	WriteSalePrice bool
}

func (p salePricing) onSale() bool {
	sale := decimal.NewFromFloat(p.SalePrice)
	return p.Enabled && sale.IsPositive() && sale.LessThan(decimal.NewFromFloat(p.Price))
}

func (p salePricing) effective() float64 {
	if p.onSale() {
		return p.SalePrice
	}
	return p.Price
}

// validate checks an enabled sale. salePriceSet tells a missing sale price
// apart from an explicit one.
func (p salePricing) validate(salePriceSet bool) error {
	if !p.Enabled {
		return nil
	}
	if !salePriceSet {
		return errSalePriceRequired
	}
	sale := decimal.NewFromFloat(p.SalePrice)
	if !sale.IsPositive() {
		return errSalePricePositive
	}
	if sale.GreaterThanOrEqual(decimal.NewFromFloat(p.Price)) {
		return errSalePriceTooHigh
	}
	return nil
}

// apply merges patch into p. Turning the sale off clears the sale price.
func (p salePricing) apply(patch salePatch) (saleChange, error) {
	next := saleChange{salePricing: p}
	if patch.Price != nil {
		next.Price = *patch.Price
	}

	salePriceSet := p.SalePrice > 0
	if patch.Enabled != nil {
		next.Enabled = *patch.Enabled
		next.WriteEnabled = true
		if !*patch.Enabled {
			next.SalePrice = 0
			next.WriteSalePrice = true
			salePriceSet = false
		}
	}
	if patch.SalePrice != nil {
		next.SalePrice = *patch.SalePrice
		next.WriteSalePrice = true
		salePriceSet = true
	}

	if err := next.validate(salePriceSet); err != nil {
		return saleChange{}, err
	}
	return next, nil
}
