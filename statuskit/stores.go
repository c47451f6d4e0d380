package statuskit

import (
	"time"

	"github.com/statuskit/go-entity-cache/entitycache"
	"github.com/statuskit/go-entity-cache/pkg/di"
)

// NewMonitorStore creates the cached store for monitors.
func NewMonitorStore(c *di.Container) (*entitycache.Store[Monitor], error) {
	return di.NewStore[Monitor](c, entitycache.StoreConfig{
		Endpoint:  "/api/monitors",
		Namespace: "monitors",
	})
}

// NewJobStore creates the cached store for jobs. The item endpoint wraps its
// response as { "job": {...} }.
func NewJobStore(c *di.Container) (*entitycache.Store[Job], error) {
	return di.NewStore[Job](c, entitycache.StoreConfig{
		Endpoint:    "/api/jobs",
		Namespace:   "jobs",
		ItemWrapper: "job",
	})
}

// NewRunStore creates the cached store for runs. Runs churn quickly, so the
// store keeps a short freshness window of its own.
func NewRunStore(c *di.Container) (*entitycache.Store[Run], error) {
	return di.NewStore[Run](c, entitycache.StoreConfig{
		Endpoint:   "/api/runs",
		Namespace:  "runs",
		ScopeParam: "jobId",
		FreshFor:   15 * time.Second,
	})
}

// NewTestStore creates the cached store for synthetic tests.
func NewTestStore(c *di.Container) (*entitycache.Store[Test], error) {
	return di.NewStore[Test](c, entitycache.StoreConfig{
		Endpoint:  "/api/tests",
		Namespace: "tests",
	})
}

// NewStatusPageStore creates the cached store for status pages.
func NewStatusPageStore(c *di.Container) (*entitycache.Store[StatusPage], error) {
	return di.NewStore[StatusPage](c, entitycache.StoreConfig{
		Endpoint:  "/api/status-pages",
		Namespace: "status_pages",
	})
}

// NewComponentStore creates the cached store for status-page components.
func NewComponentStore(c *di.Container) (*entitycache.Store[Component], error) {
	return di.NewStore[Component](c, entitycache.StoreConfig{
		Endpoint:   "/api/components",
		Namespace:  "components",
		ScopeParam: "statusPageId",
	})
}

// NewIncidentStore creates the cached store for incidents.
func NewIncidentStore(c *di.Container) (*entitycache.Store[Incident], error) {
	return di.NewStore[Incident](c, entitycache.StoreConfig{
		Endpoint:   "/api/incidents",
		Namespace:  "incidents",
		ScopeParam: "statusPageId",
	})
}

// NewSubscriberStore creates the cached store for subscribers.
func NewSubscriberStore(c *di.Container) (*entitycache.Store[Subscriber], error) {
	return di.NewStore[Subscriber](c, entitycache.StoreConfig{
		Endpoint:   "/api/subscribers",
		Namespace:  "subscribers",
		ScopeParam: "statusPageId",
	})
}
