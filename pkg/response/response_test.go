package response

import (
	"encoding/json"
	"testing"

	"contapos/pkg/pagination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorOmitsData(t *testing.T) {
	raw, err := json.Marshal(Error(404, "not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","status_code":404,"error":"not found"}`, string(raw))
}

func TestSuccessWithPagination(t *testing.T) {
	meta := pagination.NewMeta(pagination.Params{Page: 2, Limit: 1}, 3)
	res := SuccessWithPagination(200, []string{"b"}, meta)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded struct {
		Status string `json:"status"`
		Data   struct {
			Items      []string `json:"items"`
			Pagination struct {
				TotalPages int  `json:"total_pages"`
				HasPrev    bool `json:"has_prev"`
				HasNext    bool `json:"has_next"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "success", decoded.Status)
	assert.Equal(t, []string{"b"}, decoded.Data.Items)
	assert.Equal(t, 3, decoded.Data.Pagination.TotalPages)
	assert.True(t, decoded.Data.Pagination.HasPrev)
	assert.True(t, decoded.Data.Pagination.HasNext)
}
