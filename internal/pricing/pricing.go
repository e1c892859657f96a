package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/honeybadger0tter/mytropx-demo/internal/cart"
	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
)

// FulfillmentMode selects how an order reaches the buyer. It affects the
// shipping estimate only.
type FulfillmentMode string

const (
	ModeShip   FulfillmentMode = "ship"
	ModePickup FulfillmentMode = "pickup"
)

// ParseFulfillment normalizes external UI state. Anything that is not
// pickup ships.
func ParseFulfillment(value string) FulfillmentMode {
	if strings.EqualFold(strings.TrimSpace(value), string(ModePickup)) {
		return ModePickup
	}
	return ModeShip
}

// FreeShipThreshold is the subtotal at which standard shipping becomes free.
var FreeShipThreshold = decimal.NewFromInt(100)

// Shipping tiers are user-visible prices; the boundaries are exact.
var (
	tierLowLimit = decimal.NewFromInt(45)
	tierMidLimit = decimal.NewFromInt(80)

	rateLow  = decimal.NewFromFloat(8.95)
	rateMid  = decimal.NewFromFloat(6.95)
	rateHigh = decimal.NewFromFloat(4.95)
)

// Totals are the amounts derived from a cart against the catalog snapshot.
type Totals struct {
	Subtotal  decimal.Decimal
	ItemCount int
}

// ComputeTotals sums price*qty and quantities over resolvable lines. Lines
// whose product is missing from the snapshot contribute zero and are
// skipped. The result does not depend on cart ordering.
func ComputeTotals(c cart.Cart, lookup catalog.Provider) Totals {
	subtotal := decimal.Zero
	count := 0
	for _, line := range c {
		product, ok := lookup.Get(line.ProductID)
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(int64(line.Qty))
		subtotal = subtotal.Add(product.Price.Mul(qty))
		count += line.Qty
	}
	return Totals{Subtotal: subtotal, ItemCount: count}
}

// ShippingEstimate maps a subtotal and fulfillment mode onto the fixed
// tier table. Pickup and empty carts never ship.
func ShippingEstimate(subtotal decimal.Decimal, mode FulfillmentMode) decimal.Decimal {
	if mode == ModePickup {
		return decimal.Zero
	}
	if subtotal.Sign() <= 0 {
		return decimal.Zero
	}
	if subtotal.GreaterThanOrEqual(FreeShipThreshold) {
		return decimal.Zero
	}
	if subtotal.LessThan(tierLowLimit) {
		return rateLow
	}
	if subtotal.LessThan(tierMidLimit) {
		return rateMid
	}
	return rateHigh
}

// FreeShippingProgress reports how far a subtotal is toward the threshold,
// as a percentage in [0,100]. Display only, not a pricing decision.
func FreeShippingProgress(subtotal, threshold decimal.Decimal) float64 {
	if threshold.Sign() <= 0 {
		return 100
	}
	pct := subtotal.Div(threshold).Mul(decimal.NewFromInt(100))
	if pct.Sign() < 0 {
		return 0
	}
	hundred := decimal.NewFromInt(100)
	if pct.GreaterThan(hundred) {
		return 100
	}
	return pct.InexactFloat64()
}
