package registry

import "testing"

func TestRegistry_ResolveAndAll(t *testing.T) {
	t.Parallel()

	r := New([]ModelDescriptor{
		{ID: "gpt-5", Provider: "openai", VendorModelName: "gpt-5", RequiresCredential: "OPENAI_API_KEY"},
		{ID: "claude-opus", Provider: "anthropic", VendorModelName: "claude-opus-4", RequiresCredential: "ANTHROPIC_API_KEY"},
	})

	d, ok := r.Resolve("gpt-5")
	if !ok {
		t.Fatalf("expected gpt-5 to resolve")
	}
	if d.Provider != "openai" {
		t.Fatalf("expected provider openai, got %s", d.Provider)
	}

	if _, ok := r.Resolve("does-not-exist"); ok {
		t.Fatalf("expected unknown model to not resolve")
	}

	all := r.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 descriptors, got %d", len(all))
	}
	if all[0].ID != "claude-opus" || all[1].ID != "gpt-5" {
		t.Fatalf("expected sorted order, got %v", all)
	}
}

func TestRegistry_DuplicateIDLastWins(t *testing.T) {
	t.Parallel()

	r := New([]ModelDescriptor{
		{ID: "gpt-5", Provider: "openai", VendorModelName: "gpt-5-old"},
		{ID: "gpt-5", Provider: "openai", VendorModelName: "gpt-5-new"},
	})

	d, _ := r.Resolve("gpt-5")
	if d.VendorModelName != "gpt-5-new" {
		t.Fatalf("expected last descriptor to win, got %s", d.VendorModelName)
	}
	if len(r.All()) != 1 {
		t.Fatalf("expected deduplicated registry, got %d entries", len(r.All()))
	}
}
