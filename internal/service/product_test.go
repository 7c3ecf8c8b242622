package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/timmy/figureimg/internal/domain"
)

type stubLookup struct {
	prefix string
	calls  int
	result *domain.ProductResult
	err    error
}

func (s *stubLookup) GetSourceID() string     { return "productpage" }
func (s *stubLookup) GetDisplayName() string  { return "Product Page" }
func (s *stubLookup) Kind() domain.SourceKind { return domain.SourceKindLookup }

func (s *stubLookup) Allowed(itemURL string) bool {
	return strings.HasPrefix(itemURL, s.prefix)
}

func (s *stubLookup) Lookup(_ context.Context, _ string) (*domain.ProductResult, error) {
	s.calls++
	return s.result, s.err
}

func TestProductService_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		result    *domain.ProductResult
		err       error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "missing url",
			url:       "  ",
			wantErr:   domain.ErrInvalidRequest,
			wantCalls: 0,
		},
		{
			name:      "disallowed host",
			url:       "https://evil.example.com/item",
			wantErr:   domain.ErrHostNotAllowed,
			wantCalls: 0,
		},
		{
			name:      "resolution failed",
			url:       "https://shop.example.com/item/1",
			err:       &domain.ResolutionError{URL: "https://shop.example.com/item/1", Title: "Batman"},
			wantErr:   domain.ErrResolutionFailed,
			wantCalls: 1,
		},
		{
			name:      "resolved",
			url:       "https://shop.example.com/item/2",
			result:    &domain.ProductResult{Title: "Batman", Images: []string{"https://cdn/1.jpg"}},
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup := &stubLookup{prefix: "https://shop.example.com/", result: tt.result, err: tt.err}
			svc := NewProductService(lookup, nil)

			got, err := svc.Lookup(context.Background(), tt.url)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			} else if got.Title != "Batman" || len(got.Images) != 1 {
				t.Errorf("unexpected result %+v", got)
			}
			if lookup.calls != tt.wantCalls {
				t.Errorf("expected %d adapter calls, got %d", tt.wantCalls, lookup.calls)
			}
		})
	}
}

func TestProductService_DisallowedIsInvalidRequest(t *testing.T) {
	svc := NewProductService(&stubLookup{prefix: "https://shop.example.com/"}, nil)

	_, err := svc.Lookup(context.Background(), "https://evil.example.com/item")
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}
