package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process ImageStore for development and tests.
type MemoryStore struct {
	mu        sync.Mutex
	baseURL   string
	objects   map[string]memoryObject
	PutErr    func(key string) error
	DeleteErr func(key string) error
}

type memoryObject struct {
	data        []byte
	contentType string
}

// NewMemoryStore returns an empty store whose URLs start with baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) (StoredObject, error) {
	if s.PutErr != nil {
		if err := s.PutErr(key); err != nil {
			return StoredObject{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memoryObject{data: append([]byte(nil), data...), contentType: contentType}
	return StoredObject{URL: s.baseURL + "/" + key, Filename: key}, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if s.DeleteErr != nil {
		if err := s.DeleteErr(key); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(s.objects, key)
	return nil
}

// Keys lists the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the stored bytes for key.
func (s *MemoryStore) Get(key string) ([]byte, bool) {
	data, _, ok := s.Open(key)
	return data, ok
}

// Open returns the stored bytes and the content type they were uploaded with.
func (s *MemoryStore) Open(key string) ([]byte, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	return obj.data, obj.contentType, ok
}
