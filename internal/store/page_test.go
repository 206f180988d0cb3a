package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		req         PageRequest
		wantPage    int
		wantPerPage int
	}{
		{"defaults", PageRequest{}, 1, DefaultPerPage},
		{"negative page", PageRequest{Page: -3, PerPage: 5}, 1, 5},
		{"per_page clamped", PageRequest{Page: 2, PerPage: 1000}, 2, MaxPerPage},
		{"passthrough", PageRequest{Page: 4, PerPage: 25}, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.req.Normalize()
			assert.Equal(t, tt.wantPage, n.Page)
			assert.Equal(t, tt.wantPerPage, n.PerPage)
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 10, PageRequest{Page: 2, PerPage: 10}.Offset())
	assert.Equal(t, 0, PageRequest{}.Offset())
}

func TestPageCounters(t *testing.T) {
	page := Page[int]{
		Items:   []int{1, 2, 3, 4, 5},
		Total:   15,
		Page:    2,
		PerPage: 5,
	}

	assert.Equal(t, 3, page.LastPage())
	assert.Equal(t, 6, page.From())
	assert.Equal(t, 10, page.To())
}

func TestPageCountersEmpty(t *testing.T) {
	page := Page[int]{Page: 1, PerPage: 10}

	assert.Equal(t, 1, page.LastPage())
	assert.Equal(t, 0, page.From())
	assert.Equal(t, 0, page.To())
}
