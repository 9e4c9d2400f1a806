package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

func TestBatchStore(t *testing.T) {
	s := New()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Set(&models.Batch{ID: "old", CreatedAt: base})
	s.Set(&models.Batch{ID: "new", CreatedAt: base.Add(time.Hour)})

	if b, ok := s.Get("old"); !ok || b.ID != "old" {
		t.Errorf("Get(old) = %v, %v", b, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("expected miss")
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Errorf("List() order = %v", list)
	}

	if !s.Delete("old") || s.Delete("old") {
		t.Error("Delete should report whether the batch existed")
	}
}

func TestBatchStoreConcurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(&models.Batch{ID: fmt.Sprint(i)})
			s.List()
		}()
	}
	wg.Wait()

	if got := len(s.List()); got != 50 {
		t.Errorf("stored %d batches, want 50", got)
	}
}
