package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Pankaj-karwasra/product-importer/internal/catalog"
)

// productRequest is the JSON body for product create and update.
// Price is raw so clients can send either a number or a string; either
// way it goes through the same normalization as CSV imports.
type productRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       json.RawMessage `json:"price"`
	Active      *bool           `json:"active"`
}

func (p productRequest) record() (catalog.ProductRecord, error) {
	rec := catalog.ProductRecord{
		SKU:         strings.TrimSpace(p.SKU),
		Name:        strings.TrimSpace(p.Name),
		Description: strings.TrimSpace(p.Description),
		Active:      true,
	}
	if rec.SKU == "" {
		return rec, errors.New("sku is required")
	}
	if p.Active != nil {
		rec.Active = *p.Active
	}
	if len(p.Price) > 0 && string(p.Price) != "null" {
		raw := strings.Trim(string(p.Price), `"`)
		rec.Price = catalog.ToNumeric(raw)
	}
	return rec, nil
}

// handleListProducts returns products matching the optional sku, name,
// description and active query filters.
func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := catalog.ProductFilter{
		SKU:         q.Get("sku"),
		Name:        q.Get("name"),
		Description: q.Get("description"),
	}

	if raw := q.Get("active"); raw != "" {
		switch strings.ToLower(raw) {
		case "true", "1":
			t := true
			filter.Active = &t
		case "false", "0":
			f := false
			filter.Active = &f
		default:
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
	}

	products, err := s.products.ListProducts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	writeJSON(w, products)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	product, err := s.products.GetProduct(r.Context(), id)
	if err != nil {
		respondProductErr(w, err)
		return
	}

	writeJSON(w, product)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := s.products.CreateProduct(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	writeJSONStatus(w, http.StatusCreated, product)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	rec, err := req.record()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := s.products.UpdateProduct(r.Context(), id, rec)
	if err != nil {
		respondProductErr(w, err)
		return
	}

	writeJSON(w, product)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseProductID(w, r)
	if !ok {
		return
	}

	if err := s.products.DeleteProduct(r.Context(), id); err != nil {
		respondProductErr(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleBulkDeleteProducts removes every product. The body must carry
// an explicit confirmation so a stray request cannot empty the catalog.
func (s *Server) handleBulkDeleteProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusBadRequest, "confirmation required")
		return
	}

	deleted, err := s.products.DeleteAllProducts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete products")
		return
	}

	writeJSON(w, map[string]int64{"deleted": deleted})
}

func parseProductID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product ID")
		return uuid.Nil, false
	}
	return id, true
}

func respondProductErr(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "product operation failed")
}
