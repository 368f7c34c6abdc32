package storage

import "io"

// Storage abstracts where local state (datasets, model artifacts) lives so
// tests can point it at a temp dir.
type Storage interface {
	Read(path string) (io.ReadCloser, error)

	Write(path string, data io.Reader) error

	Delete(path string) error

	List(path string) ([]string, error)

	Exists(path string) (bool, error)

	Location() string
}
