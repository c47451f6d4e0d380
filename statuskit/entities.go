// Package statuskit binds the generic entity store to the concrete API
// entities of the monitoring/status-page product. Each binding is plain
// configuration: a type, an endpoint, and a cache namespace.
package statuskit

import "time"

// Monitor is an uptime check against a target URL.
type Monitor struct {
	ID                string    `json:"id"`
	ProjectID         string    `json:"projectId"`
	Name              string    `json:"name"`
	URL               string    `json:"url"`
	Method            string    `json:"method"`
	IntervalSeconds   int       `json:"intervalSeconds"`
	FailureThreshold  int       `json:"failureThreshold"`
	AggregationMethod string    `json:"aggregationMethod"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (m Monitor) EntityID() string { return m.ID }

// Job is a scheduled background check (cron-style).
type Job struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Schedule  string    `json:"schedule"`
	Status    string    `json:"status"`
	LastRunAt time.Time `json:"lastRunAt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (j Job) EntityID() string { return j.ID }

// Run is one execution of a job or test.
type Run struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	Status     string    `json:"status"`
	DurationMS int       `json:"durationMs"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (r Run) EntityID() string { return r.ID }

// Test is a synthetic check definition.
type Test struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	Target    string    `json:"target"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

func (t Test) EntityID() string { return t.ID }

// StatusPage is a public status page with branding settings.
type StatusPage struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Published bool      `json:"published"`
	LogoURL   string    `json:"logoUrl"`
	ThemeHex  string    `json:"themeHex"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p StatusPage) EntityID() string { return p.ID }

// Component is one monitored component shown on a status page.
type Component struct {
	ID           string `json:"id"`
	StatusPageID string `json:"statusPageId"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Position     int    `json:"position"`
}

func (c Component) EntityID() string { return c.ID }

// Incident is a status-page incident with a severity and lifecycle status.
type Incident struct {
	ID           string    `json:"id"`
	StatusPageID string    `json:"statusPageId"`
	Title        string    `json:"title"`
	Severity     string    `json:"severity"`
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"startedAt"`
	ResolvedAt   time.Time `json:"resolvedAt"`
}

func (i Incident) EntityID() string { return i.ID }

// Subscriber is a status-page notification subscriber.
type Subscriber struct {
	ID           string    `json:"id"`
	StatusPageID string    `json:"statusPageId"`
	Email        string    `json:"email"`
	Verified     bool      `json:"verified"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (s Subscriber) EntityID() string { return s.ID }
