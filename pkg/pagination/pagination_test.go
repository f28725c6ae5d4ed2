package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(query string) Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return Parse(c)
}

func TestParse(t *testing.T) {
	p := parseQuery("")
	assert.Equal(t, Params{Page: 1, Limit: 20, Offset: 0}, p)

	p = parseQuery("page=3&limit=10")
	assert.Equal(t, Params{Page: 3, Limit: 10, Offset: 20}, p)

	p = parseQuery("page=-1&limit=1000")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)

	p = parseQuery("page=abc&limit=0")
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultLimit, p.Limit)
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(Params{Page: 1, Limit: 20}, 45)
	assert.Equal(t, 3, m.TotalPages)
	assert.False(t, m.HasPrev)
	assert.True(t, m.HasNext)
	assert.Equal(t, []int{1, 2, 3}, m.Pages)

	m = NewMeta(Params{Page: 5, Limit: 10}, 100)
	assert.Equal(t, 10, m.TotalPages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)
	assert.Equal(t, []int{3, 4, 5, 6, 7}, m.Pages)

	m = NewMeta(Params{Page: 1, Limit: 20}, 0)
	assert.Equal(t, 0, m.TotalPages)
	assert.False(t, m.HasNext)
	assert.Empty(t, m.Pages)
}
