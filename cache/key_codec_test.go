package cache

import (
	"strings"
	"testing"

	"github.com/statuskit/go-entity-cache/pkg/testsupport"
)

type keyScenario struct {
	Name        string         `json:"name"`
	Namespace   string         `json:"namespace"`
	Scope       string         `json:"scope"`
	Filters     map[string]any `json:"filters"`
	ExpectedKey string         `json:"expectedKey"`
}

type keyFixtures struct {
	Scenarios []keyScenario `json:"scenarios"`
}

func TestDefaultKeyCodec_ListKey(t *testing.T) {
	codec := NewDefaultKeyCodec()

	tests := []struct {
		name    string
		filters map[string]any
		want    string
	}{
		{
			name:    "no filters",
			filters: nil,
			want:    "monitors::list::proj-1::",
		},
		{
			name:    "basic types",
			filters: map[string]any{"page": 1, "limit": 10, "active": true},
			want:    "monitors::list::proj-1::active=true,limit=10,page=1",
		},
		{
			name:    "nil values stripped",
			filters: map[string]any{"page": 1, "status": nil},
			want:    "monitors::list::proj-1::page=1",
		},
		{
			name:    "nil typed pointer stripped",
			filters: map[string]any{"page": 1, "status": (*string)(nil)},
			want:    "monitors::list::proj-1::page=1",
		},
		{
			name:    "slice value",
			filters: map[string]any{"tags": []string{"a", "b"}},
			want:    "monitors::list::proj-1::tags=[a b]",
		},
		{
			name:    "nested map sorted",
			filters: map[string]any{"range": map[string]int{"to": 9, "from": 1}},
			want:    "monitors::list::proj-1::range={from:1 to:9}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codec.ListKey("monitors", "proj-1", tt.filters)
			if got != tt.want {
				t.Errorf("ListKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultKeyCodec_Idempotent(t *testing.T) {
	codec := NewDefaultKeyCodec()

	// Two structurally equal filter bags built in different insertion
	// order, one with an explicit nil entry.
	a := map[string]any{}
	a["status"] = "active"
	a["page"] = 1
	a["limit"] = 10

	b := map[string]any{}
	b["limit"] = 10
	b["severity"] = nil
	b["page"] = 1
	b["status"] = "active"

	keyA := codec.ListKey("monitors", "proj-1", a)
	keyB := codec.ListKey("monitors", "proj-1", b)
	if keyA != keyB {
		t.Errorf("structurally equal filters derived different keys:\n%q\n%q", keyA, keyB)
	}

	if again := codec.ListKey("monitors", "proj-1", a); again != keyA {
		t.Errorf("repeated derivation changed the key: %q vs %q", again, keyA)
	}
}

func TestDefaultKeyCodec_HashCompaction(t *testing.T) {
	codec := NewDefaultKeyCodec()

	filters := map[string]any{
		"search": strings.Repeat("needle-", 40),
		"page":   1,
	}

	key := codec.ListKey("monitors", "proj-1", filters)
	if !strings.HasPrefix(key, "monitors::list::proj-1::x") {
		t.Fatalf("expected hashed filter segment, got %q", key)
	}

	segments := strings.Split(key, KeySeparator)
	last := segments[len(segments)-1]
	if len(last) != 17 { // "x" + 16 hex digits
		t.Errorf("hashed segment has unexpected length %d: %q", len(last), last)
	}

	if again := codec.ListKey("monitors", "proj-1", filters); again != key {
		t.Errorf("hashed key not stable: %q vs %q", again, key)
	}
}

func TestDefaultKeyCodec_ItemKeyAndPrefix(t *testing.T) {
	codec := NewDefaultKeyCodec()

	if got, want := codec.ItemKey("jobs", "job-42"), "jobs::item::job-42"; got != want {
		t.Errorf("ItemKey() = %q, want %q", got, want)
	}

	prefix := codec.ListPrefix("jobs")
	if got, want := prefix, "jobs::list::"; got != want {
		t.Errorf("ListPrefix() = %q, want %q", got, want)
	}

	listKey := codec.ListKey("jobs", "proj-1", map[string]any{"page": 1})
	if !strings.HasPrefix(listKey, prefix) {
		t.Errorf("list key %q does not start with prefix %q", listKey, prefix)
	}
	if strings.HasPrefix(codec.ItemKey("jobs", "job-42"), prefix) {
		t.Error("item key must not match the list prefix")
	}
}

func TestDefaultKeyCodec_Scenarios(t *testing.T) {
	codec := NewDefaultKeyCodec()

	var fixtures keyFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("key_scenarios.json"), &fixtures)

	if len(fixtures.Scenarios) == 0 {
		t.Fatal("no scenarios loaded")
	}

	for _, sc := range fixtures.Scenarios {
		t.Run(sc.Name, func(t *testing.T) {
			got := codec.ListKey(sc.Namespace, sc.Scope, sc.Filters)
			if got != sc.ExpectedKey {
				t.Errorf("ListKey() = %q, want %q", got, sc.ExpectedKey)
			}
		})
	}
}
