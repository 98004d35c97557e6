package database

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// ErrPersistence wraps every read, parse or write fault of a store document.
var ErrPersistence = errors.New("persistence error")

// Backend stores whole named documents.
type Backend interface {
	// Read returns the current document, or nil when it does not exist yet.
	Read(ctx context.Context, name string) ([]byte, error)
	// Update runs fn with the current document while holding an exclusive
	// lock on it and stores whatever fn returns. Nothing is stored when fn
	// fails.
	Update(ctx context.Context, name string, fn func(current []byte) ([]byte, error)) error
	// Driver names the backend for health reports.
	Driver() string
	Close() error
}

// Collection is the complete set of records of one entity type, kept as a
// single JSON array document.
type Collection[T any] struct {
	backend Backend
	name    string
}

func NewCollection[T any](backend Backend, name string) *Collection[T] {
	return &Collection[T]{backend: backend, name: name}
}

func (c *Collection[T]) Name() string {
	return c.name
}

// LoadAll returns every record. A missing document is an empty collection.
func (c *Collection[T]) LoadAll(ctx context.Context) ([]T, error) {
	log.Debugw("reading collection", "collection", c.name)
	data, err := c.backend.Read(ctx, c.name)
	if err != nil {
		log.Errorw("error reading collection", "collection", c.name, "error", err)
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, c.name, err)
	}
	records, err := c.decode(data)
	if err != nil {
		log.Errorw("error reading collection", "collection", c.name, "error", err)
		return nil, err
	}
	log.Debugw("read collection", "collection", c.name, "count", len(records))
	return records, nil
}

// SaveAll replaces the whole document with records.
func (c *Collection[T]) SaveAll(ctx context.Context, records []T) error {
	data, err := c.encode(records)
	if err != nil {
		return err
	}
	err = c.backend.Update(ctx, c.name, func([]byte) ([]byte, error) {
		return data, nil
	})
	if err != nil {
		log.Errorw("error writing collection", "collection", c.name, "error", err)
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, c.name, err)
	}
	log.Debugw("wrote collection", "collection", c.name, "count", len(records))
	return nil
}

// Update loads the collection, hands it to fn and writes back the result,
// all inside the backend's exclusive section for this document.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	var fnErr error
	err := c.backend.Update(ctx, c.name, func(current []byte) ([]byte, error) {
		records, err := c.decode(current)
		if err != nil {
			return nil, err
		}
		next, err := fn(records)
		if err != nil {
			fnErr = err
			return nil, err
		}
		return c.encode(next)
	})
	if err == nil {
		log.Debugw("wrote collection", "collection", c.name)
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	log.Errorw("error writing collection", "collection", c.name, "error", err)
	if errors.Is(err, ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: write %s: %v", ErrPersistence, c.name, err)
}

func (c *Collection[T]) decode(data []byte) ([]T, error) {
	records := []T{}
	if len(bytes.TrimSpace(data)) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPersistence, c.name, err)
	}
	if records == nil {
		// a literal null document
		records = []T{}
	}
	return records, nil
}

func (c *Collection[T]) encode(records []T) ([]byte, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrPersistence, c.name, err)
	}
	return data, nil
}
