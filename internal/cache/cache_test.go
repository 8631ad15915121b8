package cache

import (
	"context"
	"testing"
)

func TestKeyIsDeterministicAndIncludesAllInputs(t *testing.T) {
	k1 := Key("mono red creatures", `{"format":""}`, "")
	k2 := Key("mono red creatures", `{"format":""}`, "")
	if k1 != k2 {
		t.Fatalf("Key() not deterministic: %q != %q", k1, k2)
	}
	if len(k1) != 16 {
		t.Fatalf("Key() length = %d, want 16", len(k1))
	}

	k3 := Key("mono red creatures", `{"format":"commander"}`, "")
	if k1 == k3 {
		t.Fatal("Key() ignored filters JSON")
	}

	k4 := Key("mono red creatures", `{"format":""}`, "salt-a")
	if k1 == k4 {
		t.Fatal("Key() ignored salt")
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx, "cheap ramp", "{}", ""); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put(ctx, "cheap ramp", "{}", "", PutParams{
		InputText:           "cheap ramp",
		Query:               "mv<=3 otag:ramp",
		Source:              "deterministic",
		ExplanationReadable: "Parsed deterministically.",
		Confidence:          0.9,
		ShowAffiliate:       true,
	})

	res, ok := c.Get(ctx, "cheap ramp", "{}", "")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if res.Query != "mv<=3 otag:ramp" || res.Source != "cache_memory" {
		t.Errorf("Get() = %+v, unexpected result", res)
	}
	if res.ExplanationReadable != "Parsed deterministically." || res.Confidence != 0.9 || !res.ShowAffiliate {
		t.Errorf("Get() = %+v, unexpected explanation fields", res)
	}
}

func TestMemoryLRUEviction(t *testing.T) {
	c := New(nil)
	ctx := context.Background()

	for i := 0; i < memCapacity+10; i++ {
		fp := string(rune('a' + (i % 26)))
		c.Put(ctx, fp, "{}", "", PutParams{InputText: fp, Query: "q", Source: "deterministic", Confidence: 0.9})
	}

	if c.ll.Len() > memCapacity {
		t.Fatalf("LRU grew beyond capacity: %d > %d", c.ll.Len(), memCapacity)
	}
}

func TestPutWithoutDurableStoreIsSafe(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	// Below the write gate and above it; neither should panic with durable == nil.
	c.Put(ctx, "a", "{}", "", PutParams{InputText: "a", Query: "q", Source: "ai", Confidence: 0.2})
	c.Put(ctx, "b", "{}", "", PutParams{InputText: "b", Query: "q", Source: "ai", Confidence: 0.9})
}
