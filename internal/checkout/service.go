package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/honeybadger0tter/mytropx-demo/internal/cart"
	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	"github.com/honeybadger0tter/mytropx-demo/internal/pricing"
	"github.com/honeybadger0tter/mytropx-demo/pkg/config"
	pkgerrors "github.com/honeybadger0tter/mytropx-demo/pkg/errors"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
)

// Service creates a hosted payment session for a cart. Callers must fall
// back to FallbackURL on any error so the demo flow is never blocked.
type Service interface {
	CreateSession(ctx context.Context, lines cart.Cart, mode pricing.FulfillmentMode) (string, error)
	FallbackURL() string
}

type service struct {
	client  SessionClient
	catalog catalog.Provider
	cfg     config.CheckoutConfig
	origin  string
	logg    *logger.Logger
}

// NewService builds the checkout session provider. A nil client means demo
// mode: every session request resolves to the fallback redirect.
func NewService(client SessionClient, provider catalog.Provider, cfg config.CheckoutConfig, origin string, logg *logger.Logger) (Service, error) {
	if provider == nil {
		return nil, fmt.Errorf("catalog provider required")
	}
	return &service{
		client:  client,
		catalog: provider,
		cfg:     cfg,
		origin:  origin,
		logg:    logg,
	}, nil
}

func (s *service) FallbackURL() string {
	return s.cfg.FallbackURL
}

// CreateSession resolves the cart against the catalog and asks Stripe for a
// hosted checkout URL. The call runs under the configured timeout; it is
// dispatched once, never retried.
func (s *service) CreateSession(ctx context.Context, lines cart.Cart, mode pricing.FulfillmentMode) (string, error) {
	if s.client == nil {
		// No Stripe keys provided, keep the demo flowing.
		return s.cfg.FallbackURL, nil
	}

	lineItems, subtotal := s.buildLineItems(lines)
	if len(lineItems) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(s.origin + s.cfg.SuccessPath),
		CancelURL:         stripe.String(s.origin + s.cfg.CancelPath),
		ClientReferenceID: stripe.String("cart_" + uuid.NewString()),
	}

	if mode == pricing.ModePickup {
		// Pickup needs a contact record, not a shipping address.
		params.PhoneNumberCollection = &stripe.CheckoutSessionPhoneNumberCollectionParams{
			Enabled: stripe.Bool(true),
		}
		params.BillingAddressCollection = stripe.String("auto")
		params.AddMetadata("fulfillment", string(pricing.ModePickup))
		params.AddMetadata("pickup_location", s.cfg.PickupPlace)
	} else {
		params.ShippingAddressCollection = &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{s.cfg.ShipCountry}),
		}
		params.ShippingOptions = shippingOptions(subtotal)
		params.AddMetadata("fulfillment", string(pricing.ModeShip))
	}

	callCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	session, err := s.client.Create(callCtx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if session == nil || session.URL == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "checkout session missing redirect url")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "session_id", session.ID), "checkout session created")
	}
	return session.URL, nil
}

// buildLineItems converts resolvable cart lines into Stripe line items and
// returns the subtotal over the same lines. Orphaned lines are skipped.
func (s *service) buildLineItems(lines cart.Cart) ([]*stripe.CheckoutSessionLineItemParams, decimal.Decimal) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		product, ok := s.catalog.Get(line.ProductID)
		if !ok {
			continue
		}
		qty := sanitizeQty(line.Qty)
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(qty))))

		name := product.Name
		size := line.Size
		if size != "" {
			name = fmt.Sprintf("%s (Size %s)", product.Name, size)
		} else {
			size = "N/A"
		}

		productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(name),
			Metadata: map[string]string{
				"catalog_id": product.ID,
				"size":       size,
			},
		}
		if product.Image != "" {
			productData.Images = stripe.StringSlice([]string{product.Image})
		}

		items = append(items, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(qty)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyUSD)),
				UnitAmount:  stripe.Int64(moneyToCents(product.Price)),
				ProductData: productData,
			},
		})
	}
	return items, subtotal
}

// shippingOptions mirrors the storefront shipping policy: standard is free
// at or above the threshold, else paid; express is always offered.
func shippingOptions(subtotal decimal.Decimal) []*stripe.CheckoutSessionShippingOptionParams {
	options := make([]*stripe.CheckoutSessionShippingOptionParams, 0, 2)

	if subtotal.GreaterThanOrEqual(pricing.FreeShipThreshold) {
		options = append(options, shippingOption("Standard Shipping (Free over $100)", 0, 3, 6))
	} else {
		options = append(options, shippingOption("Standard Shipping", 995, 3, 6))
	}
	options = append(options, shippingOption("Express Shipping", 1995, 1, 2))

	return options
}

func shippingOption(name string, amountCents, minDays, maxDays int64) *stripe.CheckoutSessionShippingOptionParams {
	return &stripe.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			DisplayName: stripe.String(name),
			Type:        stripe.String("fixed_amount"),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(amountCents),
				Currency: stripe.String(string(stripe.CurrencyUSD)),
			},
			DeliveryEstimate: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateParams{
				Minimum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMinimumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(minDays),
				},
				Maximum: &stripe.CheckoutSessionShippingOptionShippingRateDataDeliveryEstimateMaximumParams{
					Unit:  stripe.String("business_day"),
					Value: stripe.Int64(maxDays),
				},
			},
		},
	}
}

func sanitizeQty(qty int) int {
	if qty <= 0 {
		return 1
	}
	if qty > cart.MaxQty {
		return cart.MaxQty
	}
	return qty
}

func moneyToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
