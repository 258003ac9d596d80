package morm

import (
	"encoding/json"
	"testing"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		items, index, size         int
		count, pageIndex, off, lim int
		next, prev                 bool
	}{
		{0, 1, 10, 0, 1, 0, 0, false, false},
		{91, 1, 10, 10, 1, 0, 10, true, false},
		{91, 10, 10, 10, 10, 90, 10, false, true},
		{91, 11, 10, 10, 1, 0, 0, true, false},
		{5, 0, 0, 1, 1, 0, 10, false, false},
		{20, 2, 10, 2, 2, 10, 10, false, true},
	}
	for _, tt := range tests {
		p := NewPage(tt.items, tt.index, tt.size)
		if p.PageCount != tt.count || p.PageIndex != tt.pageIndex || p.Offset != tt.off || p.Limit != tt.lim ||
			p.HasNext != tt.next || p.HasPrevious != tt.prev {
			t.Errorf("NewPage(%d, %d, %d) = %s next=%v prev=%v", tt.items, tt.index, tt.size, p, p.HasNext, p.HasPrevious)
		}
	}
}

func TestPageBounds(t *testing.T) {
	if p := NewPage(1, 1, MaxPageSize+1); p.PageSize != MaxPageSize {
		t.Errorf("page size not capped: %d", p.PageSize)
	}
	p := NewPage(30, 3, 10)
	if p.IsFirstPage() || !p.IsLastPage() {
		t.Errorf("unexpected position %s", p)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(p.ToJson()), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["page_index"] != float64(3) || decoded["has_previous"] != true {
		t.Errorf("unexpected json %v", decoded)
	}
}
