package storage

import (
	"sort"
	"sync"

	"github.com/lehigh-university-libraries/mangacat/internal/models"
)

// BatchStore keeps finished batches in memory for the HTTP API
type BatchStore struct {
	batches map[string]*models.Batch
	mu      sync.RWMutex
}

func New() *BatchStore {
	return &BatchStore{
		batches: make(map[string]*models.Batch),
	}
}

func (s *BatchStore) Get(id string) (*models.Batch, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	batch, exists := s.batches[id]
	return batch, exists
}

func (s *BatchStore) Set(batch *models.Batch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[batch.ID] = batch
}

// List returns every batch, newest first
func (s *BatchStore) List() []*models.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Batch, 0, len(s.batches))
	for _, b := range s.batches {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func (s *BatchStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.batches[id]
	delete(s.batches, id)
	return exists
}
