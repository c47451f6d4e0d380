package statuskit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statuskit/go-entity-cache/entitycache"
	"github.com/statuskit/go-entity-cache/pkg/di"
	"github.com/statuskit/go-entity-cache/pkg/testsupport"
)

func newContainer(t *testing.T, baseURL string) *di.Container {
	t.Helper()
	c, err := di.NewContainerWithDefaults(baseURL)
	require.NoError(t, err)
	return c
}

func TestStoreConstructors(t *testing.T) {
	c := newContainer(t, "http://localhost:8080")

	monitors, err := NewMonitorStore(c)
	require.NoError(t, err)
	assert.Equal(t, "monitors", monitors.Namespace())

	jobs, err := NewJobStore(c)
	require.NoError(t, err)
	assert.Equal(t, "jobs", jobs.Namespace())

	runs, err := NewRunStore(c)
	require.NoError(t, err)
	assert.Equal(t, "runs", runs.Namespace())

	tests, err := NewTestStore(c)
	require.NoError(t, err)
	assert.Equal(t, "tests", tests.Namespace())

	pages, err := NewStatusPageStore(c)
	require.NoError(t, err)
	assert.Equal(t, "status_pages", pages.Namespace())

	components, err := NewComponentStore(c)
	require.NoError(t, err)
	assert.Equal(t, "components", components.Namespace())

	incidents, err := NewIncidentStore(c)
	require.NoError(t, err)
	assert.Equal(t, "incidents", incidents.Namespace())

	subscribers, err := NewSubscriberStore(c)
	require.NoError(t, err)
	assert.Equal(t, "subscribers", subscribers.Namespace())
}

func TestKeyShapes(t *testing.T) {
	c := newContainer(t, "http://localhost:8080")

	monitors, err := NewMonitorStore(c)
	require.NoError(t, err)

	key := monitors.ListKey("proj-1", entitycache.ListOptions{Page: 1, PageSize: 10})
	assert.Equal(t, "monitors::list::proj-1::limit=10,page=1", key)
	assert.Equal(t, "monitors::item::mon-9", monitors.ItemKey("mon-9"))
}

func TestEntityIDs(t *testing.T) {
	assert.Equal(t, "m1", Monitor{ID: "m1"}.EntityID())
	assert.Equal(t, "j1", Job{ID: "j1"}.EntityID())
	assert.Equal(t, "r1", Run{ID: "r1"}.EntityID())
	assert.Equal(t, "t1", Test{ID: "t1"}.EntityID())
	assert.Equal(t, "sp1", StatusPage{ID: "sp1"}.EntityID())
	assert.Equal(t, "c1", Component{ID: "c1"}.EntityID())
	assert.Equal(t, "i1", Incident{ID: "i1"}.EntityID())
	assert.Equal(t, "s1", Subscriber{ID: "s1"}.EntityID())
}

func TestMonitorStore_EndToEnd(t *testing.T) {
	fake := testsupport.NewFakeAPI(t)
	fake.RespondJSON(http.MethodGet, "/api/monitors", http.StatusOK, map[string]any{
		"data": []map[string]any{
			{"id": "m1", "projectId": "proj-1", "name": "API uptime", "url": "https://example.com", "status": "up"},
		},
		"pagination": map[string]any{
			"total": 1, "page": 1, "limit": 20, "totalPages": 1,
		},
	})

	c := newContainer(t, fake.URL())
	monitors, err := NewMonitorStore(c)
	require.NoError(t, err)

	ctx := context.Background()
	page, err := monitors.List(ctx, "proj-1", entitycache.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "API uptime", page.Items[0].Name)
	assert.Equal(t, 1, page.Pagination.Total)

	_, err = monitors.List(ctx, "proj-1", entitycache.ListOptions{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Calls(http.MethodGet, "/api/monitors"),
		"structurally equal options share one cache entry")
}

func TestJobStore_UnwrapsItemResponse(t *testing.T) {
	fake := testsupport.NewFakeAPI(t)
	fake.RespondJSON(http.MethodGet, "/api/jobs/j1", http.StatusOK, map[string]any{
		"job": map[string]any{"id": "j1", "name": "nightly backup", "schedule": "0 2 * * *"},
	})

	c := newContainer(t, fake.URL())
	jobs, err := NewJobStore(c)
	require.NoError(t, err)

	job, err := jobs.Get(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "nightly backup", job.Name)
}

func TestRunStore_ScopesByJob(t *testing.T) {
	fake := testsupport.NewFakeAPI(t)
	fake.Handle(http.MethodGet, "/api/runs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("jobId") != "j1" {
			testsupport.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "jobId is required"})
			return
		}
		testsupport.WriteJSON(w, http.StatusOK, map[string]any{
			"data":       []map[string]any{{"id": "r1", "jobId": "j1", "status": "success", "durationMs": 420}},
			"pagination": map[string]any{"total": 1, "page": 1, "limit": 20, "totalPages": 1},
		})
	})

	c := newContainer(t, fake.URL())
	runs, err := NewRunStore(c)
	require.NoError(t, err)

	page, err := runs.List(context.Background(), "j1", entitycache.ListOptions{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "success", page.Items[0].Status)
	assert.Equal(t, 420, page.Items[0].DurationMS)
}

func TestRunStore_ShortFreshnessWindow(t *testing.T) {
	fake := testsupport.NewFakeAPI(t)
	fake.RespondJSON(http.MethodGet, "/api/runs", http.StatusOK, map[string]any{
		"data":       []map[string]any{},
		"pagination": map[string]any{"total": 0, "page": 1, "limit": 20, "totalPages": 0},
	})

	c := newContainer(t, fake.URL())
	runs, err := NewRunStore(c)
	require.NoError(t, err)

	start := time.Now()
	_, err = runs.List(context.Background(), "j1", entitycache.ListOptions{})
	require.NoError(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, fake.Calls(http.MethodGet, "/api/runs"))
}
