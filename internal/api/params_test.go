package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestPaginatorParse(t *testing.T) {
	p := Paginator{PageSize: 6, MaxPageSize: 50}

	tests := []struct {
		query string
		want  types.PageRequest
		err   error
	}{
		{"", types.PageRequest{Page: 1, Limit: 6}, nil},
		{"?page=3&limit=10", types.PageRequest{Page: 3, Limit: 10}, nil},
		{"?limit=500", types.PageRequest{Page: 1, Limit: 50}, nil},
		{"?limit=-1", types.PageRequest{Page: 1, Limit: 6}, nil},
		{"?limit=abc", types.PageRequest{Page: 1, Limit: 6}, nil},
		{"?page=0", types.PageRequest{}, service.ErrNotFound},
		{"?page=last", types.PageRequest{}, service.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := p.Parse(testContext("/api/recipes/" + tt.query))
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageOfLinks(t *testing.T) {
	c := testContext("/api/recipes/?page=2&limit=2&tags=lunch")
	c.Request.Header.Set("X-Forwarded-Proto", "https")

	page := pageOf(c, types.PageRequest{Page: 2, Limit: 2}, []int{3, 4}, 5)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Equal(t, "https://example.com/api/recipes/?limit=2&page=3&tags=lunch", *page.Next)
	assert.Equal(t, "https://example.com/api/recipes/?limit=2&tags=lunch", *page.Previous)

	empty := pageOf[int](testContext("/api/users/"), types.PageRequest{Page: 1, Limit: 6}, nil, 0)
	assert.NotNil(t, empty.Results)
	assert.Nil(t, empty.Next)
	assert.Nil(t, empty.Previous)
}

func TestQueryParams(t *testing.T) {
	for query, want := range map[string]bool{"": false, "?f=1": true, "?f=true": true, "?f=0": false, "?f=false": false} {
		got, err := queryFlag(testContext("/x"+query), "f")
		require.NoError(t, err, query)
		assert.Equal(t, want, got, query)
	}
	_, err := queryFlag(testContext("/x?f=yes"), "f")
	assert.Error(t, err)

	n, err := recipesLimit(testContext("/x?recipes_limit=3"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = recipesLimit(testContext("/x"))
	require.NoError(t, err)
	assert.Zero(t, n)
	for _, bad := range []string{"0", "-2", "many"} {
		_, err := recipesLimit(testContext("/x?recipes_limit=" + bad))
		assert.Error(t, err, bad)
	}
}
