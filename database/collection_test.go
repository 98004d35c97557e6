package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type record struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func newTestCollection(t *testing.T) (*Collection[record], *FileBackend) {
	t.Helper()
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBackend: %v", err)
	}
	return NewCollection[record](backend, "records"), backend
}

func TestCollection_LoadAll_MissingFileIsEmpty(t *testing.T) {
	c, _ := newTestCollection(t)

	records, err := c.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", records)
	}
}

func TestCollection_LoadAll_BlankAndNullAreEmpty(t *testing.T) {
	for _, content := range []string{"", "  \n", "null"} {
		c, backend := newTestCollection(t)
		writeDocument(t, backend.Path("records"), content)

		records, err := c.LoadAll(context.Background())
		if err != nil {
			t.Fatalf("LoadAll(%q): %v", content, err)
		}
		if records == nil || len(records) != 0 {
			t.Fatalf("LoadAll(%q): expected empty slice, got %#v", content, records)
		}
	}
}

func TestCollection_LoadAll_CorruptFileIsPersistenceError(t *testing.T) {
	c, backend := newTestCollection(t)
	writeDocument(t, backend.Path("records"), "[{\"id\": 1,")

	_, err := c.LoadAll(context.Background())
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestCollection_Update_CorruptFileIsNotOverwritten(t *testing.T) {
	c, backend := newTestCollection(t)
	writeDocument(t, backend.Path("records"), "{broken")

	err := c.Update(context.Background(), func(rs []record) ([]record, error) {
		return append(rs, record{ID: 1}), nil
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	data, err := os.ReadFile(backend.Path("records"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "{broken" {
		t.Fatalf("corrupt document was replaced: %q", data)
	}
}

func TestCollection_SaveAllThenLoadAll(t *testing.T) {
	c, backend := newTestCollection(t)
	ctx := context.Background()

	in := []record{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}}
	if err := c.SaveAll(ctx, in); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	out, err := c.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Fatalf("unexpected records: %#v", out)
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(backend.Path("records")), "records.json"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "\n  {\n    \"id\": 1,") {
		t.Fatalf("expected indented JSON, got:\n%s", data)
	}
}

func TestCollection_SaveAll_NilWritesEmptyArray(t *testing.T) {
	c, backend := newTestCollection(t)

	if err := c.SaveAll(context.Background(), nil); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	data, err := os.ReadFile(backend.Path("records"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "[]" {
		t.Fatalf("expected [], got %q", data)
	}
}

func TestCollection_Update_ErrorLeavesDocumentUntouched(t *testing.T) {
	c, _ := newTestCollection(t)
	ctx := context.Background()
	if err := c.SaveAll(ctx, []record{{ID: 1}}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}

	boom := errors.New("boom")
	err := c.Update(ctx, func(rs []record) ([]record, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error back, got %v", err)
	}
	if errors.Is(err, ErrPersistence) {
		t.Fatalf("fn error must not be reported as a persistence fault")
	}

	out, err := c.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("document changed after failed update: %#v", out)
	}
}

func TestCollection_Update_SerializesWriters(t *testing.T) {
	c, _ := newTestCollection(t)
	ctx := context.Background()

	const writers = 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := c.Update(ctx, func(rs []record) ([]record, error) {
				return append(rs, record{ID: len(rs) + 1}), nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	out, err := c.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != writers {
		t.Fatalf("expected %d records, got %d", writers, len(out))
	}
	for i, r := range out {
		if r.ID != i+1 {
			t.Fatalf("lost update: record %d has id %d", i, r.ID)
		}
	}
}

func TestFileBackend_NoTempFilesLeft(t *testing.T) {
	c, backend := newTestCollection(t)
	if err := c.SaveAll(context.Background(), []record{{ID: 1}}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(backend.Path("records")))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "records.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected files: %v", names)
	}
}

func TestFileBackend_CancelledContext(t *testing.T) {
	_, backend := newTestCollection(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := backend.Read(ctx, "records"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewFileBackend_RequiresDir(t *testing.T) {
	if _, err := NewFileBackend(" "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}

func writeDocument(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestCollection_SaveAll_ReplacesCorruptDocument(t *testing.T) {
	c, backend := newTestCollection(t)
	writeDocument(t, backend.Path("records"), "{broken")

	if err := c.SaveAll(context.Background(), []record{{ID: 1, Name: "fresh"}}); err != nil {
		t.Fatalf("SaveAll: %v", err)
	}
	out, err := c.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(out) != 1 || out[0].Name != "fresh" {
		t.Fatalf("unexpected records %#v", out)
	}
}
