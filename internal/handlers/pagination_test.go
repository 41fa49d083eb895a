package handlers

import (
	"errors"
	"testing"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		page, limit string
		want        pageRequest
		err         error
	}{
		{"", "", pageRequest{Page: 1, Limit: 20}, nil},
		{"3", "10", pageRequest{Page: 3, Limit: 10}, nil},
		{"0", "10", pageRequest{}, errInvalidPagination},
		{"1", "101", pageRequest{}, errInvalidPagination},
		{"x", "", pageRequest{}, errInvalidPagination},
	}
	for _, tt := range tests {
		got, err := parsePage(tt.page, tt.limit)
		if !errors.Is(err, tt.err) || got != tt.want {
			t.Fatalf("parsePage(%q, %q) = %+v, %v; want %+v, %v", tt.page, tt.limit, got, err, tt.want, tt.err)
		}
	}
	if off := (pageRequest{Page: 3, Limit: 10}).offset(); off != 20 {
		t.Fatalf("expected offset 20, got %d", off)
	}
}
