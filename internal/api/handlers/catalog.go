package handlers

import (
	"net/http"

	"github.com/pathwise-ai/pathwise/internal/service"
)

// CatalogHandler serves the static protocol and strategy catalogs.
type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

func (h *CatalogHandler) ListProtocols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"protocols": service.AvailableProtocols()})
}

func (h *CatalogHandler) ListStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": service.AvailableStrategyNames()})
}
