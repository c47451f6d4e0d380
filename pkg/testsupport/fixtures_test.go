package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"testing"
)

func TestLoadFixtureJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.json")

	WriteGolden(t, path, []byte(`{"id":"w1","name":"fixture"}`))

	var dest struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	LoadFixtureJSON(t, path, &dest)

	if dest.ID != "w1" || dest.Name != "fixture" {
		t.Errorf("unexpected fixture contents: %+v", dest)
	}
}

func TestCompareWithGolden_CreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "golden", "output.json")
	payload := []byte(`{"ok":true}`)

	CompareWithGolden(t, path, payload)

	// Second comparison reads the file written by the first.
	CompareWithGolden(t, path, payload)

	data := LoadFixture(t, path)
	if string(data) != string(payload) {
		t.Errorf("golden file contents = %q, want %q", data, payload)
	}
}

func TestFixturePaths(t *testing.T) {
	if got := FixturePath("widget.json"); got != filepath.Join("testdata", "widget.json") {
		t.Errorf("FixturePath() = %q", got)
	}
	if got := GoldenPath("widget.json"); got != filepath.Join("testdata", "golden", "widget.json") {
		t.Errorf("GoldenPath() = %q", got)
	}
}

func TestFakeAPI_RoutesAndCounts(t *testing.T) {
	fake := NewFakeAPI(t)
	fake.RespondJSON(http.MethodGet, "/api/widgets", http.StatusOK, map[string]any{
		"data": []string{},
	})

	for i := 0; i < 3; i++ {
		resp, err := http.Get(fake.URL() + "/api/widgets?page=1")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	}

	if got := fake.Calls(http.MethodGet, "/api/widgets"); got != 3 {
		t.Errorf("Calls() = %d, want 3", got)
	}

	if got := fake.Calls(http.MethodDelete, "/api/widgets"); got != 0 {
		t.Errorf("Calls() for unvisited route = %d, want 0", got)
	}
}

func TestFakeAPI_UnknownRoute(t *testing.T) {
	fake := NewFakeAPI(t)

	resp, err := http.Get(fake.URL() + "/missing")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if payload["error"] == "" {
		t.Error("expected an error message in the 404 body")
	}
}
