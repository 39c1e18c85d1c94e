package common

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/pkg/errors"
)

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		token float64
		want  PageWindow
	}{
		{0.5, PageWindow{Skip: 0, Limit: 3}},
		{1, PageWindow{Skip: 0, Limit: 8}},
		{2, PageWindow{Skip: 8, Limit: 8}},
		{3, PageWindow{Skip: 16, Limit: 8}},
		{1000, PageWindow{Skip: 7992, Limit: 8}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputeWindow(tt.token), "token %v", tt.token)
	}
}

func TestParsePageToken(t *testing.T) {
	tests := []struct {
		raw     string
		want    float64
		wantErr bool
	}{
		{"0.5", 0.5, false},
		{"1", 1, false},
		{" 4 ", 4, false},
		{"", 0, true},
		{"abc", 0, true},
		{"0", 0, true},
		{"-2", 0, true},
		{"1.5", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1e12", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParsePageToken(tt.raw)
			if tt.wantErr {
				assert.True(t, errors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    ListQuery
		wantErr bool
	}{
		{"page only", "?page=2", ListQuery{Window: PageWindow{Skip: 8, Limit: 8}}, false},
		{"preview", "?page=0.5", ListQuery{Window: PageWindow{Skip: 0, Limit: 3}}, false},
		{"search defaults to first page", "?search=%20acme%20", ListQuery{Search: "acme", Window: PageWindow{Skip: 0, Limit: 8}}, false},
		{"page and search", "?page=3&search=x", ListQuery{Search: "x", Window: PageWindow{Skip: 16, Limit: 8}}, false},
		{"neither", "", ListQuery{}, true},
		{"bad page", "?page=zero", ListQuery{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/admin/brands"+tt.query, nil)
			got, err := ParseListQuery(r)
			if tt.wantErr {
				assert.True(t, errors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptionalPage(t *testing.T) {
	w, err := ParseOptionalPage(httptest.NewRequest("GET", "/api/orders", nil))
	require.NoError(t, err)
	assert.Equal(t, ComputeWindow(1), w)

	_, err = ParseOptionalPage(httptest.NewRequest("GET", "/api/orders?page=-1", nil))
	assert.True(t, errors.IsValidation(err))
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2, 3}, Slice(items, PageWindow{Skip: 0, Limit: 3}))
	assert.Equal(t, []int{4, 5}, Slice(items, PageWindow{Skip: 3, Limit: 8}))
	assert.Empty(t, Slice(items, PageWindow{Skip: 8, Limit: 8}))
	assert.NotNil(t, Slice(items, PageWindow{Skip: 8, Limit: 8}))
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest("POST", "/", nil)
	assert.True(t, errors.IsValidation(DecodeJSON(r, &v)))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	assert.True(t, errors.IsValidation(DecodeJSON(r, &v)))

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Acme"}`))
	require.NoError(t, DecodeJSON(r, &v))
	assert.Equal(t, "Acme", v.Name)
}
