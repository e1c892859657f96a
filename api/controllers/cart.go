package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/honeybadger0tter/mytropx-demo/api/middleware"
	"github.com/honeybadger0tter/mytropx-demo/api/responses"
	"github.com/honeybadger0tter/mytropx-demo/api/validators"
	cartsvc "github.com/honeybadger0tter/mytropx-demo/internal/cart"
	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	"github.com/honeybadger0tter/mytropx-demo/internal/pricing"
	pkgerrors "github.com/honeybadger0tter/mytropx-demo/pkg/errors"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
)

type addItemRequest struct {
	ID   string `json:"id" validate:"required"`
	Size string `json:"size"`
	Qty  int    `json:"qty" validate:"omitempty,min=1,max=99"`
}

type updateItemRequest struct {
	ID    string `json:"id" validate:"required"`
	Size  string `json:"size"`
	Delta int    `json:"delta" validate:"required"`
}

type removeItemRequest struct {
	ID   string `json:"id" validate:"required"`
	Size string `json:"size"`
}

type cartItemView struct {
	ID        string           `json:"id"`
	Size      string           `json:"size"`
	Qty       int              `json:"qty"`
	Name      string           `json:"name,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal *decimal.Decimal `json:"line_total,omitempty"`
	Orphaned  bool             `json:"orphaned,omitempty"`
}

type cartView struct {
	Items                []cartItemView  `json:"items"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	ItemCount            int             `json:"item_count"`
	Fulfillment          string          `json:"fulfillment"`
	ShippingEstimate     decimal.Decimal `json:"shipping_estimate"`
	FreeShipThreshold    decimal.Decimal `json:"free_ship_threshold"`
	FreeShippingProgress float64         `json:"free_shipping_progress"`
}

// CartFetch returns the session's cart with derived totals for the
// requested fulfillment mode.
func CartFetch(svc cartsvc.Service, provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current := svc.Load(r.Context(), sessionID)
		mode := pricing.ParseFulfillment(r.URL.Query().Get("fulfillment"))
		responses.WriteSuccess(w, newCartView(current, provider, mode))
	}
}

// CartAddItem merges a line into the session's cart. Unknown products are a
// silent no-op per the storefront policy, so the handler always answers
// with the resulting cart.
func CartAddItem(svc cartsvc.Service, provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		qty := payload.Qty
		if qty == 0 {
			qty = 1
		}

		current := svc.AddLine(r.Context(), sessionID, payload.ID, payload.Size, qty)
		mode := pricing.ParseFulfillment(r.URL.Query().Get("fulfillment"))
		responses.WriteSuccess(w, newCartView(current, provider, mode))
	}
}

// CartUpdateItem applies a signed quantity delta to a line.
func CartUpdateItem(svc cartsvc.Service, provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current := svc.UpdateQuantity(r.Context(), sessionID, payload.ID, payload.Size, payload.Delta)
		mode := pricing.ParseFulfillment(r.URL.Query().Get("fulfillment"))
		responses.WriteSuccess(w, newCartView(current, provider, mode))
	}
}

// CartRemoveItem drops a line from the cart, no-op when absent.
func CartRemoveItem(svc cartsvc.Service, provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload removeItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current := svc.RemoveLine(r.Context(), sessionID, payload.ID, payload.Size)
		mode := pricing.ParseFulfillment(r.URL.Query().Get("fulfillment"))
		responses.WriteSuccess(w, newCartView(current, provider, mode))
	}
}

// CartClear empties the session's cart.
func CartClear(svc cartsvc.Service, provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := cartSessionFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		current := svc.Clear(r.Context(), sessionID)
		mode := pricing.ParseFulfillment(r.URL.Query().Get("fulfillment"))
		responses.WriteSuccess(w, newCartView(current, provider, mode))
	}
}

func cartSessionFromRequest(r *http.Request) (string, error) {
	sessionID := middleware.CartSessionFromContext(r.Context())
	if sessionID == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "cart session missing")
	}
	return sessionID, nil
}

func newCartView(current cartsvc.Cart, provider catalog.Provider, mode pricing.FulfillmentMode) cartView {
	items := make([]cartItemView, 0, len(current))
	for _, line := range current {
		item := cartItemView{
			ID:   line.ProductID,
			Size: line.Size,
			Qty:  line.Qty,
		}
		if product, ok := provider.Get(line.ProductID); ok {
			price := product.Price
			total := price.Mul(decimal.NewFromInt(int64(line.Qty)))
			item.Name = product.Name
			item.UnitPrice = &price
			item.LineTotal = &total
		} else {
			item.Orphaned = true
		}
		items = append(items, item)
	}

	totals := pricing.ComputeTotals(current, provider)
	return cartView{
		Items:                items,
		Subtotal:             totals.Subtotal,
		ItemCount:            totals.ItemCount,
		Fulfillment:          string(mode),
		ShippingEstimate:     pricing.ShippingEstimate(totals.Subtotal, mode),
		FreeShipThreshold:    pricing.FreeShipThreshold,
		FreeShippingProgress: pricing.FreeShippingProgress(totals.Subtotal, pricing.FreeShipThreshold),
	}
}
