package service

import (
	"context"
	"testing"

	"github.com/timmy/figureimg/internal/domain"
)

type stubMaintainer struct {
	counts    map[string]int
	refreshed bool
}

func (s *stubMaintainer) ForceRefreshAll(context.Context) map[string]int {
	s.refreshed = true
	return s.counts
}

func (s *stubMaintainer) Counts() map[string]int         { return s.counts }
func (s *stubMaintainer) Status() []domain.CatalogStatus { return nil }

func TestCatalogService_Refresh(t *testing.T) {
	cache := &stubMaintainer{counts: map[string]int{"multiverse": 120, "retro_66": 30, "motu_origins": 0}}
	svc := NewCatalogService(cache, nil)

	result := svc.Refresh(context.Background())

	if !cache.refreshed {
		t.Fatal("expected a forced refresh")
	}
	if result.Status != "ok" || result.Total != 150 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Counts["retro_66"] != 30 {
		t.Errorf("expected per-catalog counts, got %v", result.Counts)
	}
}

func TestCatalogService_CountsNeverRefresh(t *testing.T) {
	cache := &stubMaintainer{counts: map[string]int{"multiverse": 2, "retro_66": 3}}
	svc := NewCatalogService(cache, nil)

	counts, total := svc.Counts()

	if cache.refreshed {
		t.Error("counts must not refresh the cache")
	}
	if total != 5 || len(counts) != 2 {
		t.Errorf("unexpected counts %v total %d", counts, total)
	}
}
