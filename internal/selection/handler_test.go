package selection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storeadmin/pkg/models"
)

type mapProducts map[int64]models.Product

func (m mapProducts) GetProduct(_ context.Context, _, id int64) (*models.Product, error) {
	if id == 500 {
		return nil, errors.New("boom")
	}
	p, ok := m[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg, _ := newTestRegistry(nil)
	h := NewHandler(reg, mapProducts{1: shirt, 7: {ID: 7, Type: models.ProductSimple, Name: "Mug", Price: "3"}}, nil)

	r := gin.New()
	h.RegisterRoutes(r.Group("/searches"))
	return r
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_SelectionFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/searches", gin.H{"site_id": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID    string  `json:"id"`
		Value []int64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	base := "/searches/" + created.ID

	w = do(t, r, http.MethodPost, base+"/rows", gin.H{"product_id": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, base+"/rows/1/attributes", gin.H{"attributes": gin.H{"color": "red"}})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Events []Event `json:"events"`
		Value  []int64 `json:"value"`
		Row    RowView `json:"row"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []Event{{EventSelect, 1}, {EventSelect, 11}}, res.Events)
	assert.Equal(t, []int64{1, 11}, res.Value)

	w = do(t, r, http.MethodPost, base+"/rows/1/attributes", gin.H{"attributes": gin.H{"color": "any"}})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Events)

	w = do(t, r, http.MethodPost, base+"/rows/1/change", gin.H{"id": 11})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []int64{1}, res.Value)

	w = do(t, r, http.MethodPost, base+"/rows/1/customize", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, base+"/rows/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rows":[`)

	w = do(t, r, http.MethodDelete, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, r, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_Errors(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/searches", gin.H{"singular": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/searches", gin.H{"site_id": 3, "singular": true})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	base := "/searches/" + created.ID
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, base+"/rows", gin.H{"product_id": 1}).Code)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown search", http.MethodGet, "/searches/nope", nil, http.StatusNotFound},
		{"unknown product", http.MethodPost, base + "/rows", gin.H{"product_id": 99}, http.StatusNotFound},
		{"catalog failure", http.MethodPost, base + "/rows", gin.H{"product_id": 500}, http.StatusInternalServerError},
		{"missing product id", http.MethodPost, base + "/rows", gin.H{}, http.StatusBadRequest},
		{"bad product param", http.MethodGet, base + "/rows/abc", nil, http.StatusBadRequest},
		{"row not added", http.MethodGet, base + "/rows/7", nil, http.StatusNotFound},
		{"change without id", http.MethodPost, base + "/rows/7/change", gin.H{}, http.StatusBadRequest},
		{"change id outside row", http.MethodPost, base + "/rows/1/change", gin.H{"id": 999}, http.StatusBadRequest},
		{"change unresolved variation", http.MethodPost, base + "/rows/1/change", gin.H{"id": 11}, http.StatusBadRequest},
		{"change host of variable product", http.MethodPost, base + "/rows/1/change", gin.H{"id": 1}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}
