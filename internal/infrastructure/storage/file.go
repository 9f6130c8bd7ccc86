package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jhoicas/pilo-web/internal/domain/repository"
)

var _ repository.ClientStateRepository = (*FileStore)(nil)

// FileStore ClientState en un archivo JSON local (lo usa el CLI). Cada escritura
// reemplaza el archivo completo vía rename.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore crea el directorio padre si no existe.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("file store: crear directorio: %w", err)
	}
	return &FileStore{path: path}, nil
}

// Path ruta del archivo.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() (map[string]map[string]string, error) {
	data := make(map[string]map[string]string)
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file store: leer: %w", err)
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("file store: archivo corrupto %s: %w", s.path, err)
	}
	return data, nil
}

func (s *FileStore) save(data map[string]map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("file store: serializar: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("file store: escribir: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(_ context.Context, namespace, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return "", err
	}
	v, ok := data[namespace][key]
	if !ok {
		return "", repository.ErrStateNotFound
	}
	return v, nil
}

func (s *FileStore) Set(_ context.Context, namespace, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	if data[namespace] == nil {
		data[namespace] = make(map[string]string)
	}
	data[namespace][key] = value
	return s.save(data)
}

func (s *FileStore) Delete(_ context.Context, namespace string, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.load()
	if err != nil {
		return err
	}
	ns, ok := data[namespace]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(data, namespace)
	}
	return s.save(data)
}
