package checkout

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	pkgstripe "github.com/honeybadger0tter/mytropx-demo/pkg/stripe"
)

// SessionClient exposes the subset of Stripe operations required by the
// checkout service.
type SessionClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeClientWrapper struct{}

// NewSessionClient wraps the provided Stripe client so the checkout service
// can be tested. A demo-mode client yields nil, which the service treats as
// "always answer with the fallback redirect".
func NewSessionClient(api *pkgstripe.Client) SessionClient {
	if api == nil || api.DemoMode() {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if params != nil {
		params.Context = ctx
	}
	return checkoutsession.New(params)
}
