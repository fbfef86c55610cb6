package store

import (
	"context"
	"errors"
	"testing"
)

type record struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestAdapterRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemoryBackend())

	a.Save(ctx, "k", record{Name: "pharma1.json", Count: 3})

	var got record
	if !a.Load(ctx, "k", &got) {
		t.Fatal("expected a value")
	}
	if got.Name != "pharma1.json" || got.Count != 3 {
		t.Fatalf("got %+v", got)
	}

	a.Delete(ctx, "k")
	if a.Load(ctx, "k", &got) {
		t.Fatal("deleted key should be absent")
	}
}

func TestAdapterAbsentKey(t *testing.T) {
	a := NewAdapter(NewMemoryBackend())
	var got record
	if a.Load(context.Background(), "nothing", &got) {
		t.Fatal("missing key should report absent")
	}
}

type brokenBackend struct{}

func (brokenBackend) Put(context.Context, string, string) error { return errors.New("quota exceeded") }
func (brokenBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}
func (brokenBackend) Delete(context.Context, string) error { return errors.New("storage disabled") }

// Every adapter operation is total: backend failures degrade to no-ops and
// absent results, never to errors or panics at the call site.
func TestAdapterSwallowsBackendFailures(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(brokenBackend{})
	a.logf = func(string, ...interface{}) {}

	a.Save(ctx, "k", record{Name: "x"})
	a.Delete(ctx, "k")
	var got record
	if a.Load(ctx, "k", &got) {
		t.Fatal("failed load should report absent")
	}
}

func TestAdapterCorruptValue(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	if err := backend.Put(ctx, "k", "{definitely not json"); err != nil {
		t.Fatal(err)
	}
	a := NewAdapter(backend)
	a.logf = func(string, ...interface{}) {}

	var got record
	if a.Load(ctx, "k", &got) {
		t.Fatal("corrupt value should report absent")
	}
}

func TestAdapterUnserializableValue(t *testing.T) {
	a := NewAdapter(NewMemoryBackend())
	a.logf = func(string, ...interface{}) {}
	// Channels cannot be marshalled; Save must degrade to a no-op.
	a.Save(context.Background(), "k", make(chan int))
	var got record
	if a.Load(context.Background(), "k", &got) {
		t.Fatal("nothing should have been stored")
	}
}
