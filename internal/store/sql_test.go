package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/topaz-quiz/quizd/internal/db"
	"github.com/topaz-quiz/quizd/internal/store"
)

func openSQLite(t *testing.T) *store.SQLBackend {
	t.Helper()
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "quizd_test.db") + "?_pragma=busy_timeout(5000)"
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { dbh.Close() })
	return store.NewSQLBackend(dbh)
}

func TestSQLBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := openSQLite(t)

	if _, ok, err := b.Get(ctx, "pharma1.json"); err != nil || ok {
		t.Fatalf("fresh table: ok=%v err=%v", ok, err)
	}

	if err := b.Put(ctx, "pharma1.json", `{"answered":1}`); err != nil {
		t.Fatalf("put: %v", err)
	}
	v, ok, err := b.Get(ctx, "pharma1.json")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if v != `{"answered":1}` {
		t.Fatalf("value %q", v)
	}

	// Upsert overwrites in place.
	if err := b.Put(ctx, "pharma1.json", `{"answered":2}`); err != nil {
		t.Fatalf("put again: %v", err)
	}
	v, _, _ = b.Get(ctx, "pharma1.json")
	if v != `{"answered":2}` {
		t.Fatalf("after upsert %q", v)
	}

	if err := b.Delete(ctx, "pharma1.json"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := b.Get(ctx, "pharma1.json"); ok {
		t.Fatal("deleted key still present")
	}
}

func TestSQLBackendThroughAdapter(t *testing.T) {
	ctx := context.Background()
	a := store.NewAdapter(openSQLite(t))

	type rec struct {
		Answered int `json:"answered"`
	}
	a.Save(ctx, "lab1.json", rec{Answered: 4})
	var got rec
	if !a.Load(ctx, "lab1.json", &got) || got.Answered != 4 {
		t.Fatalf("round trip through adapter: %+v", got)
	}
}
