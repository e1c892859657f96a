package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/honeybadger0tter/mytropx-demo/internal/cart"
	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	"github.com/honeybadger0tter/mytropx-demo/internal/pricing"
	"github.com/honeybadger0tter/mytropx-demo/pkg/config"
	pkgerrors "github.com/honeybadger0tter/mytropx-demo/pkg/errors"
)

type fakeSessionClient struct {
	createFn func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	lastCall *stripe.CheckoutSessionParams
}

func (f *fakeSessionClient) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.lastCall = params
	if f.createFn != nil {
		return f.createFn(ctx, params)
	}
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/pay/cs_test_1"}, nil
}

func testProvider() catalog.Provider {
	return catalog.NewSnapshot([]catalog.Product{
		{
			ID:    "jock",
			Name:  "Neoprene Jock",
			Price: decimal.NewFromFloat(26.95),
			Image: "https://cdn.example.com/jock.jpg",
			Sizes: []string{"M", "L"},
		},
		{
			ID:    "brief",
			Name:  "Zipper Brief",
			Price: decimal.NewFromInt(34),
			Sizes: []string{"S", "M"},
		},
	})
}

func testConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		SuccessPath: "/success.html",
		CancelPath:  "/cancel.html",
		FallbackURL: "/success.html?demo=1",
		Timeout:     2 * time.Second,
		PickupPlace: "MyTropx Store",
		ShipCountry: "US",
	}
}

func TestNewServiceRequiresCatalog(t *testing.T) {
	_, err := NewService(nil, nil, testConfig(), "http://localhost:4242", nil)
	require.Error(t, err)
}

func TestCreateSessionDemoMode(t *testing.T) {
	svc, err := NewService(nil, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	url, err := svc.CreateSession(context.Background(), cart.Cart{{ProductID: "jock", Size: "M", Qty: 1}}, pricing.ModeShip)
	require.NoError(t, err)
	assert.Equal(t, "/success.html?demo=1", url)
	assert.Equal(t, "/success.html?demo=1", svc.FallbackURL())
}

func TestCreateSessionEmptyCart(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{}, pricing.ModeShip)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	assert.Nil(t, client.lastCall, "empty carts must not reach the payment provider")
}

func TestCreateSessionAllOrphansIsEmpty(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "retired", Qty: 2}}, pricing.ModeShip)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestCreateSessionShipMode(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	lines := cart.Cart{
		{ProductID: "jock", Size: "M", Qty: 2},
		{ProductID: "retired", Qty: 1},
	}
	url, err := svc.CreateSession(context.Background(), lines, pricing.ModeShip)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", url)

	params := client.lastCall
	require.NotNil(t, params)
	assert.Equal(t, "payment", stripe.StringValue(params.Mode))
	assert.Equal(t, "http://localhost:4242/success.html", stripe.StringValue(params.SuccessURL))
	assert.Equal(t, "http://localhost:4242/cancel.html", stripe.StringValue(params.CancelURL))
	assert.NotEmpty(t, stripe.StringValue(params.ClientReferenceID))

	require.Len(t, params.LineItems, 1, "orphaned lines are dropped")
	item := params.LineItems[0]
	assert.Equal(t, int64(2), stripe.Int64Value(item.Quantity))
	assert.Equal(t, int64(2695), stripe.Int64Value(item.PriceData.UnitAmount))
	assert.Equal(t, "Neoprene Jock (Size M)", stripe.StringValue(item.PriceData.ProductData.Name))
	assert.Equal(t, "jock", item.PriceData.ProductData.Metadata["catalog_id"])

	require.NotNil(t, params.ShippingAddressCollection)
	require.Len(t, params.ShippingAddressCollection.AllowedCountries, 1)
	assert.Equal(t, "US", stripe.StringValue(params.ShippingAddressCollection.AllowedCountries[0]))
	require.Len(t, params.ShippingOptions, 2)

	// 2 x 26.95 = 53.90, under the free shipping threshold.
	standard := params.ShippingOptions[0].ShippingRateData
	assert.Equal(t, int64(995), stripe.Int64Value(standard.FixedAmount.Amount))
	express := params.ShippingOptions[1].ShippingRateData
	assert.Equal(t, int64(1995), stripe.Int64Value(express.FixedAmount.Amount))

	assert.Equal(t, "ship", params.Metadata["fulfillment"])
	assert.Nil(t, params.PhoneNumberCollection)
}

func TestCreateSessionFreeStandardShipping(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	// 4 x 26.95 = 107.80, over the threshold.
	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "jock", Size: "L", Qty: 4}}, pricing.ModeShip)
	require.NoError(t, err)

	params := client.lastCall
	require.Len(t, params.ShippingOptions, 2)
	standard := params.ShippingOptions[0].ShippingRateData
	assert.Equal(t, int64(0), stripe.Int64Value(standard.FixedAmount.Amount))
	assert.Contains(t, stripe.StringValue(standard.DisplayName), "Free")
}

func TestCreateSessionPickupMode(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "brief", Size: "S", Qty: 1}}, pricing.ModePickup)
	require.NoError(t, err)

	params := client.lastCall
	require.NotNil(t, params.PhoneNumberCollection)
	assert.True(t, stripe.BoolValue(params.PhoneNumberCollection.Enabled))
	assert.Equal(t, "auto", stripe.StringValue(params.BillingAddressCollection))
	assert.Equal(t, "pickup", params.Metadata["fulfillment"])
	assert.Equal(t, "MyTropx Store", params.Metadata["pickup_location"])
	assert.Nil(t, params.ShippingAddressCollection)
	assert.Empty(t, params.ShippingOptions)
}

func TestCreateSessionSizelessLine(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "brief", Qty: 1}}, pricing.ModeShip)
	require.NoError(t, err)

	item := client.lastCall.LineItems[0]
	assert.Equal(t, "Zipper Brief", stripe.StringValue(item.PriceData.ProductData.Name))
	assert.Equal(t, "N/A", item.PriceData.ProductData.Metadata["size"])
}

func TestCreateSessionSanitizesQuantity(t *testing.T) {
	client := &fakeSessionClient{}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	lines := cart.Cart{
		{ProductID: "jock", Size: "M", Qty: 0},
		{ProductID: "brief", Size: "S", Qty: 500},
	}
	_, err = svc.CreateSession(context.Background(), lines, pricing.ModePickup)
	require.NoError(t, err)

	items := client.lastCall.LineItems
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), stripe.Int64Value(items[0].Quantity))
	assert.Equal(t, int64(99), stripe.Int64Value(items[1].Quantity))
}

func TestCreateSessionProviderFailure(t *testing.T) {
	client := &fakeSessionClient{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return nil, errors.New("stripe unavailable")
		},
	}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "jock", Size: "M", Qty: 1}}, pricing.ModeShip)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestCreateSessionMissingRedirectURL(t *testing.T) {
	client := &fakeSessionClient{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			return &stripe.CheckoutSession{ID: "cs_test_2"}, nil
		},
	}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "jock", Size: "M", Qty: 1}}, pricing.ModeShip)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeDependency, appErr.Code())
}

func TestCreateSessionAppliesTimeout(t *testing.T) {
	client := &fakeSessionClient{
		createFn: func(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
			if _, ok := ctx.Deadline(); !ok {
				return nil, errors.New("expected a deadline")
			}
			return &stripe.CheckoutSession{ID: "cs_test_3", URL: "https://checkout.stripe.com/pay/cs_test_3"}, nil
		},
	}
	svc, err := NewService(client, testProvider(), testConfig(), "http://localhost:4242", nil)
	require.NoError(t, err)

	_, err = svc.CreateSession(context.Background(), cart.Cart{{ProductID: "jock", Size: "M", Qty: 1}}, pricing.ModeShip)
	require.NoError(t, err)
}

func TestMoneyToCents(t *testing.T) {
	cases := []struct {
		amount string
		cents  int64
	}{
		{"26.95", 2695},
		{"34", 3400},
		{"0", 0},
		{"19.955", 1996},
	}
	for _, tc := range cases {
		got := moneyToCents(decimal.RequireFromString(tc.amount))
		assert.Equal(t, tc.cents, got, "amount %s", tc.amount)
	}
}
