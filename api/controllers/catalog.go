package controllers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
)

// CatalogList serves the catalog snapshot. The response is a bare JSON
// array: the storefront client consumes it directly, without the API
// envelope.
func CatalogList(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := json.NewEncoder(w).Encode(provider.List()); err != nil {
			log.Printf(`{"level":"error","msg":"failed to encode catalog","err":"%v"}`, err)
		}
	}
}
