package morm

import (
	"encoding/json"
	"fmt"
)

// Page describes one page of a listing: which rows to load (Offset, Limit)
// and how it relates to its neighbours.
type Page struct {
	ItemCount   int  `json:"item_count"`
	PageCount   int  `json:"page_count"`
	PageIndex   int  `json:"page_index"`
	PageSize    int  `json:"page_size"`
	Offset      int  `json:"offset"`
	Limit       int  `json:"limit"`
	HasNext     bool `json:"has_next"`
	HasPrevious bool `json:"has_previous"`
}

// NewPage computes the page layout. An empty listing or a page index past the
// last page yields page 1 with Offset and Limit 0.
func NewPage(itemCount, pageIndex, pageSize int) *Page {
	if pageSize < MinPageSize {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if pageIndex < DefaultPage {
		pageIndex = DefaultPage
	}

	p := &Page{ItemCount: itemCount, PageSize: pageSize}
	p.PageCount = itemCount / pageSize
	if itemCount%pageSize > 0 {
		p.PageCount++
	}
	if itemCount == 0 || pageIndex > p.PageCount {
		p.Offset = 0
		p.Limit = 0
		p.PageIndex = 1
	} else {
		p.PageIndex = pageIndex
		p.Offset = pageSize * (pageIndex - 1)
		p.Limit = pageSize
	}
	p.HasNext = p.PageIndex < p.PageCount
	p.HasPrevious = p.PageIndex > 1
	return p
}

// IsFirstPage returns true if the current page is the first page.
func (p *Page) IsFirstPage() bool {
	return p.PageIndex <= 1
}

// IsLastPage returns true if the current page is the last page.
func (p *Page) IsLastPage() bool {
	return p.PageIndex >= p.PageCount
}

// ToJson returns a JSON string representation of the Page instance.
func (p *Page) ToJson() string {
	b, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return string(b)
}

func (p *Page) String() string {
	return fmt.Sprintf("item_count: %d, page_count: %d, page_index: %d, page_size: %d, offset: %d, limit: %d",
		p.ItemCount, p.PageCount, p.PageIndex, p.PageSize, p.Offset, p.Limit)
}
