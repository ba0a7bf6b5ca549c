package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessWithPagination(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		pages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 0, 0},
	}
	for _, tt := range tests {
		r := SuccessWithPagination(200, []int{}, 1, tt.limit, tt.total)
		assert.Equal(t, tt.pages, r.Meta.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestError_OmitsData(t *testing.T) {
	b, err := json.Marshal(Error(404, "customer not found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"error","status_code":404,"error":"customer not found"}`, string(b))
}
