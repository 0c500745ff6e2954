package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/tz"
)

// Subscription is a single ICS feed. URL may be http(s), file:// or a
// plain filesystem path.
type Subscription struct {
	ID   string
	Name string
	URL  string
}

// DisplayName is the calendar name attached to the feed's events.
func (s Subscription) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.ID != "":
		return s.ID
	default:
		return redactURL(s.URL)
	}
}

// Fetcher downloads ICS payloads. Each feed is tried exactly once.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher; a nil client gets a 15s timeout default.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client}
}

// FetchOne returns the raw body of one subscription.
func (f *Fetcher) FetchOne(ctx context.Context, sub Subscription) ([]byte, error) {
	if sub.URL == "" {
		return nil, errors.New("subscription URL is empty")
	}

	if path, ok := localPath(sub.URL); ok {
		return os.ReadFile(path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	appLog.Info("ics fetch start", "id", sub.ID, "url", redactURL(sub.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics fetch %s: %s", redactURL(sub.URL), resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	appLog.Info("ics fetch success", "id", sub.ID, "url", redactURL(sub.URL), "bytes", len(body))
	return body, nil
}

// SubscriptionSource feeds ICS subscriptions into the planner.
type SubscriptionSource struct {
	Fetcher       *Fetcher
	Subscriptions []Subscription
	Resolver      tz.Resolver
	Policy        RecurrencePolicy
}

func (s *SubscriptionSource) Name() string { return "ics" }

// Fetch downloads, parses and normalizes every subscription for day. A
// failing feed is logged and the others still contribute.
func (s *SubscriptionSource) Fetch(ctx context.Context, day model.Date, data *model.PlannerData) error {
	fetcher := s.Fetcher
	if fetcher == nil {
		fetcher = NewFetcher(nil)
	}
	norm := Normalizer{Resolver: s.Resolver, Day: day, Policy: s.Policy}

	var errs []error
	for _, sub := range s.Subscriptions {
		body, err := fetcher.FetchOne(ctx, sub)
		if err != nil {
			appLog.Error("ics fetch failed", err, "id", sub.ID, "url", redactURL(sub.URL))
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.DisplayName(), err))
			continue
		}
		raws, err := ParseICS(sub.DisplayName(), body)
		if err != nil {
			errs = append(errs, fmt.Errorf("subscription %s: %w", sub.DisplayName(), err))
			continue
		}
		events := norm.NormalizeAll(raws)
		data.Events = append(data.Events, events...)
		appLog.Info("ics subscription processed", "calendar", sub.DisplayName(), "events", len(events))
	}
	return errors.Join(errs...)
}

func localPath(u string) (string, bool) {
	if strings.HasPrefix(u, "file://") {
		return strings.TrimPrefix(u, "file://"), true
	}
	if !strings.Contains(u, "://") {
		return u, true
	}
	return "", false
}

// redactURL hides path and query of a feed URL for logging; private
// calendar URLs usually embed a token.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "ics://...(redacted)"
	}
	return parsed.Scheme + "://" + parsed.Host + redactedSuffix
}
