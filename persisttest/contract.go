package persisttest

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

// Options configures shared store contract checks.
type Options struct {
	// CaseName is used to namespace record names. Defaults to t.Name().
	CaseName string
	// NullSemantics relaxes expectations for stores that discard writes.
	NullSemantics bool
	// SkipCloneCheck disables the "get returns a copy" assertion.
	SkipCloneCheck bool
}

// Store is the minimal contract required by RunStoreContract.
type Store interface {
	Get(ctx context.Context, name string) ([]byte, bool, error)
	Set(ctx context.Context, name string, body []byte) error
}

// RunStoreContract runs a backend-agnostic record store contract suite.
func RunStoreContract(t *testing.T, store Store, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	ctx := context.Background()
	name := func(s string) string {
		return sanitize(caseName) + "-" + s
	}

	// Missing record is not an error.
	if body, ok, err := store.Get(ctx, name("missing")); err != nil || ok || body != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v body=%q", ok, err, body)
	}

	// Set/Get round-trip.
	first := []byte("<Settings>\n\t<Theme>dark</Theme>\n</Settings>\n")
	if err := store.Set(ctx, name("alpha"), first); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	body, ok, err := store.Get(ctx, name("alpha"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if opts.NullSemantics {
		if ok {
			t.Fatalf("expected null store to report miss")
		}
		return
	}
	if !ok || !bytes.Equal(body, first) {
		t.Fatalf("unexpected round trip: ok=%v body=%q", ok, body)
	}

	if !opts.SkipCloneCheck {
		body[0] = 'x'
		again, _, err := store.Get(ctx, name("alpha"))
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if !bytes.Equal(again, first) {
			t.Fatalf("expected get to return a copy, got %q", again)
		}
	}

	// Overwrite replaces the whole record.
	second := []byte("<Settings></Settings>\n")
	if err := store.Set(ctx, name("alpha"), second); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	body, ok, err = store.Get(ctx, name("alpha"))
	if err != nil || !ok || !bytes.Equal(body, second) {
		t.Fatalf("unexpected overwrite: ok=%v err=%v body=%q", ok, err, body)
	}

	// Records are independent.
	if err := store.Set(ctx, name("beta"), first); err != nil {
		t.Fatalf("set beta failed: %v", err)
	}
	body, ok, err = store.Get(ctx, name("alpha"))
	if err != nil || !ok || !bytes.Equal(body, second) {
		t.Fatalf("beta write leaked into alpha: ok=%v err=%v body=%q", ok, err, body)
	}
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", " ", "_", ":", "_").Replace(s)
}
