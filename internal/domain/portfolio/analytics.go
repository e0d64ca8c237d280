package portfolio

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Mangopixel04/portfliomango/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ANALYTICS
// ══════════════════════════════════════════════════════════════════════════════

// EventPageView is the analytics event type counted as a page view.
const EventPageView = "page_view"

// TopPagesLimit bounds Metrics.TopPages.
const TopPagesLimit = 5

// DefaultEventsLimit is the page size for listing analytics events.
const DefaultEventsLimit = 100

// AnalyticsEvent is one client-side analytics hit.
// EventData is an opaque JSON string supplied by the client.
type AnalyticsEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"eventType"`
	EventData *string   `json:"eventData"`
	UserAgent *string   `json:"userAgent"`
	IPAddress *string   `json:"ipAddress"`
	SessionID *string   `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
}

// AnalyticsInput is the client-supplied part of an event. The transport
// fills UserAgent, IPAddress and SessionID from the request.
type AnalyticsInput struct {
	EventType string  `json:"eventType"`
	EventData *string `json:"eventData"`
	UserAgent string  `json:"-"`
	IPAddress string  `json:"-"`
	SessionID string  `json:"-"`
}

// NewAnalyticsEvent validates in and creates an event stamped at now.
func NewAnalyticsEvent(in AnalyticsInput, now time.Time) (*AnalyticsEvent, error) {
	eventType := strings.TrimSpace(in.EventType)
	if eventType == "" {
		return nil, shared.NewDomainError("analytics", "Track", shared.ErrEmptyValue, "eventType is required")
	}
	return &AnalyticsEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		EventData: in.EventData,
		UserAgent: optional(in.UserAgent),
		IPAddress: optional(in.IPAddress),
		SessionID: optional(in.SessionID),
		Timestamp: now.UTC(),
	}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PageViews is one row of the top pages table.
type PageViews struct {
	Page  string `json:"page"`
	Views int    `json:"views"`
}

// Metrics is the analytics dashboard summary.
type Metrics struct {
	LiveVisitors   int64       `json:"liveVisitors"`
	PageViews      int         `json:"pageViews"`
	UniqueSessions int         `json:"uniqueSessions"`
	TopPages       []PageViews `json:"topPages"`
}

// ComputeMetrics summarises events. Page view events carry the page in
// their data as {"page": "/path"}; a page view without one counts as "/",
// and one with unparsable data is not ranked. Events without a session id
// count as one anonymous session.
func ComputeMetrics(events []*AnalyticsEvent, liveVisitors int64) Metrics {
	m := Metrics{LiveVisitors: liveVisitors, TopPages: []PageViews{}}

	sessions := make(map[string]struct{})
	pages := make(map[string]int)

	for _, e := range events {
		sid := ""
		if e.SessionID != nil {
			sid = *e.SessionID
		}
		sessions[sid] = struct{}{}

		if e.EventType != EventPageView {
			continue
		}
		m.PageViews++

		page, ok := pageOf(e.EventData)
		if ok {
			pages[page]++
		}
	}
	m.UniqueSessions = len(sessions)

	for page, views := range pages {
		m.TopPages = append(m.TopPages, PageViews{Page: page, Views: views})
	}
	sort.Slice(m.TopPages, func(i, j int) bool {
		if m.TopPages[i].Views != m.TopPages[j].Views {
			return m.TopPages[i].Views > m.TopPages[j].Views
		}
		return m.TopPages[i].Page < m.TopPages[j].Page
	})
	if len(m.TopPages) > TopPagesLimit {
		m.TopPages = m.TopPages[:TopPagesLimit]
	}
	return m
}

func pageOf(data *string) (string, bool) {
	raw := "{}"
	if data != nil && *data != "" {
		raw = *data
	}
	var payload struct {
		Page string `json:"page"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return "", false
	}
	if payload.Page == "" {
		return "/", true
	}
	return payload.Page, true
}
