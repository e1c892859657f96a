package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/honeybadger0tter/mytropx-demo/api/validators"
	cartsvc "github.com/honeybadger0tter/mytropx-demo/internal/cart"
	checkoutsvc "github.com/honeybadger0tter/mytropx-demo/internal/checkout"
	"github.com/honeybadger0tter/mytropx-demo/internal/pricing"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
)

type checkoutItem struct {
	ID   string `json:"id" validate:"required"`
	Size string `json:"size"`
	Qty  int    `json:"qty"`
}

type checkoutRequest struct {
	Items       []checkoutItem `json:"items"`
	Fulfillment string         `json:"fulfillment"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckoutSession exchanges the posted cart for a hosted payment
// redirect. The flow is never blocked: malformed payloads, empty carts,
// and provider failures all answer with the fallback redirect.
func CreateCheckoutSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "checkout payload rejected, using fallback redirect")
			}
			writeRedirect(w, svc.FallbackURL())
			return
		}

		lines := make(cartsvc.Cart, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, cartsvc.Line{ProductID: item.ID, Size: item.Size, Qty: item.Qty})
		}
		mode := pricing.ParseFulfillment(payload.Fulfillment)

		url, err := svc.CreateSession(ctx, lines, mode)
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "checkout session failed, using fallback redirect")
			}
			writeRedirect(w, svc.FallbackURL())
			return
		}

		writeRedirect(w, url)
	}
}

// writeRedirect answers the raw {url} contract the storefront client reads.
func writeRedirect(w http.ResponseWriter, url string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(checkoutResponse{URL: url}); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode checkout response","err":"%v"}`, err)
	}
}
