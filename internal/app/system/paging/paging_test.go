package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/applications", nil)
	p := Parse(r)
	if p.Page != 1 || p.Limit != DefaultLimit {
		t.Errorf("got page=%d limit=%d, want 1/%d", p.Page, p.Limit, DefaultLimit)
	}
	if p.Skip() != 0 {
		t.Errorf("Skip() = %d, want 0", p.Skip())
	}
}

func TestParse_Explicit(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/applications?page=2&limit=10", nil)
	p := Parse(r)
	if p.Page != 2 || p.Limit != 10 {
		t.Errorf("got page=%d limit=%d, want 2/10", p.Page, p.Limit)
	}
	if p.Skip() != 10 {
		t.Errorf("Skip() = %d, want 10", p.Skip())
	}
}

func TestParse_ClampsAndIgnoresGarbage(t *testing.T) {
	tests := []struct {
		query     string
		wantPage  int
		wantLimit int
	}{
		{"?page=0&limit=0", 1, DefaultLimit},
		{"?page=-3&limit=-1", 1, DefaultLimit},
		{"?page=abc&limit=xyz", 1, DefaultLimit},
		{"?limit=500", 1, MaxLimit},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/cases"+tt.query, nil)
		p := Parse(r)
		if p.Page != tt.wantPage || p.Limit != tt.wantLimit {
			t.Errorf("%s: got page=%d limit=%d, want %d/%d",
				tt.query, p.Page, p.Limit, tt.wantPage, tt.wantLimit)
		}
	}
}

func TestMetaFor(t *testing.T) {
	tests := []struct {
		page, limit int
		total       int64
		wantPages   int64
	}{
		{2, 10, 25, 3},
		{1, 10, 0, 0},
		{1, 10, 10, 1},
		{1, 10, 11, 2},
		{3, 5, 14, 3},
	}
	for _, tt := range tests {
		p := Params{Page: tt.page, Limit: tt.limit}
		m := p.MetaFor(tt.total)
		if m.Pages != tt.wantPages {
			t.Errorf("MetaFor(%d) with limit %d: pages = %d, want %d",
				tt.total, tt.limit, m.Pages, tt.wantPages)
		}
		if m.Total != tt.total || m.Page != tt.page || m.Limit != tt.limit {
			t.Errorf("MetaFor(%d) = %+v, echo fields wrong", tt.total, m)
		}
	}
}
