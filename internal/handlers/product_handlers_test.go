package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/ndanilko/storefront/internal/models"
	"github.com/ndanilko/storefront/internal/repo"
)

func newProductHandler(t *testing.T) *ProductHandler {
	return &ProductHandler{Repo: repo.NewGormRepo(InitTestDB(t))}
}

func TestGetProduct(t *testing.T) {
	h := newProductHandler(t)
	e := echo.New()
	h.Repo.DB.Create(&models.Product{Name: "shirt", Description: "plain", Price: 499, Stock: 5, Category: "shirts"})

	rec, c := doJSONRequest(e, t, http.MethodGet, "/api/v1/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "shirt", got.Name)
	require.Equal(t, uint(5), got.Stock)

	_, c = doJSONRequest(e, t, http.MethodGet, "/api/v1/products/42", nil)
	c.SetParamNames("id")
	c.SetParamValues("42")
	err := h.GetProduct(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusNotFound, he.Code)
}

func TestGetProductsPaginationAndCategory(t *testing.T) {
	h := newProductHandler(t)
	e := echo.New()
	for i := 0; i < 15; i++ {
		cat := "shirts"
		if i%3 == 0 {
			cat = "shoes"
		}
		h.Repo.DB.Create(&models.Product{Name: "p", Price: 100, Stock: 1, Category: cat})
	}

	rec, c := doJSONRequest(e, t, http.MethodGet, "/api/v1/products?page=2&size=10", nil)
	require.NoError(t, h.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.Product `json:"data"`
		Meta struct {
			Total   int64 `json:"total"`
			HasNext bool  `json:"has_next"`
			HasPrev bool  `json:"has_prev"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 5)
	require.Equal(t, int64(15), resp.Meta.Total)
	require.False(t, resp.Meta.HasNext)
	require.True(t, resp.Meta.HasPrev)

	rec, c = doJSONRequest(e, t, http.MethodGet, "/api/v1/products?category=shoes", nil)
	require.NoError(t, h.GetProducts(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, int64(5), resp.Meta.Total)
}

func TestCreateAndPatchProduct(t *testing.T) {
	h := newProductHandler(t)
	e := echo.New()

	rec, c := doJSONRequest(e, t, http.MethodPost, "/api/v1/admin/products", map[string]any{
		"name":        "shirt",
		"description": "plain",
		"price":       499.0,
		"stock":       5,
		"image_url":   "https://img.example/shirt.png",
		"category":    "shirts",
	})
	require.NoError(t, h.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotZero(t, created.ID)

	rec, c = doJSONRequest(e, t, http.MethodPatch, "/api/v1/admin/products/1", map[string]any{
		"name":        "shirt",
		"description": "plain",
		"price":       399.0,
		"stock":       7,
		"category":    "shirts",
	})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.PatchProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var patched models.Product
	require.NoError(t, h.Repo.DB.First(&patched, created.ID).Error)
	require.Equal(t, 399.0, patched.Price)
	require.Equal(t, uint(7), patched.Stock)
}

func TestDeleteProduct(t *testing.T) {
	h := newProductHandler(t)
	e := echo.New()
	h.Repo.DB.Create(&models.Product{Name: "shirt", Price: 499, Stock: 5})

	rec, c := doJSONRequest(e, t, http.MethodDelete, "/api/v1/admin/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteProduct(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	h.Repo.DB.Model(&models.Product{}).Count(&count)
	require.Zero(t, count)
}
