// Package caldav reads events from a CalDAV server. Discovery and
// calendar-query REPORTs go through go-webdav; returned objects are
// re-encoded to iCalendar text so they share the ics parsing path.
package caldav

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	davcal "github.com/emersion/go-webdav/caldav"

	appLog "dailyplanner/internal/log"
)

// Calendar is one calendar collection on the server.
type Calendar struct {
	Name string
	URL  string
}

// DisplayName falls back to the collection URL when the server has no
// displayname for it.
func (c Calendar) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.URL
}

// Client talks to one CalDAV account.
type Client struct {
	base *url.URL
	dav  *davcal.Client
}

// NewClient returns a client rooted at baseURL. A nil httpClient gets a
// 30s timeout default.
func NewClient(baseURL, username, password string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("caldav url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("caldav url %q: scheme must be http or https", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	var hc webdav.HTTPClient = httpClient
	if username != "" {
		hc = webdav.HTTPClientWithBasicAuth(httpClient, username, password)
	}
	dav, err := davcal.NewClient(hc, baseURL)
	if err != nil {
		return nil, fmt.Errorf("caldav client: %w", err)
	}
	return &Client{base: u, dav: dav}, nil
}

// Discover lists the calendar collections of the authenticated user by
// following current-user-principal and calendar-home-set. Servers that do
// not report a principal are treated as if the base URL were the home set.
func (c *Client) Discover(ctx context.Context) ([]Calendar, error) {
	home := c.base.Path
	principal, perr := c.dav.FindCurrentUserPrincipal(ctx)
	if perr != nil {
		appLog.Debug("caldav principal missing, using base url as home", "error", perr)
	} else {
		var err error
		home, err = c.dav.FindCalendarHomeSet(ctx, principal)
		if err != nil {
			return nil, fmt.Errorf("find calendar home: %w", err)
		}
	}

	cals, err := c.dav.FindCalendars(ctx, home)
	if err != nil {
		if perr != nil {
			err = errors.Join(perr, err)
		}
		return nil, fmt.Errorf("list calendars: %w", err)
	}
	out := make([]Calendar, 0, len(cals))
	for _, cal := range cals {
		out = append(out, Calendar{
			Name: strings.TrimSpace(cal.Name),
			URL:  c.resolve(cal.Path),
		})
	}
	appLog.Info("caldav calendars discovered", "count", len(out))
	return out, nil
}

// Query returns the iCalendar bodies of every event in cal that overlaps
// [start, end). Recurring masters are returned unexpanded.
func (c *Client) Query(ctx context.Context, cal Calendar, start, end time.Time) ([][]byte, error) {
	u, err := url.Parse(cal.URL)
	if err != nil {
		return nil, fmt.Errorf("calendar url: %w", err)
	}
	if u.Host != "" && u.Host != c.base.Host {
		return nil, fmt.Errorf("calendar %s is not on %s", cal.URL, c.base.Host)
	}

	appLog.Debug("caldav query", "calendar", cal.DisplayName(), "path", u.Path)
	objs, err := c.dav.QueryCalendar(ctx, u.Path, eventQuery(start, end))
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(objs))
	for _, obj := range objs {
		if obj.Data == nil {
			continue
		}
		var buf bytes.Buffer
		if err := ical.NewEncoder(&buf).Encode(obj.Data); err != nil {
			appLog.Warn("caldav: skipping object that cannot be encoded", "path", obj.Path, "error", err)
			continue
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

func eventQuery(start, end time.Time) *davcal.CalendarQuery {
	return &davcal.CalendarQuery{
		CompRequest: davcal.CalendarCompRequest{
			Name:     "VCALENDAR",
			AllProps: true,
			AllComps: true,
		},
		CompFilter: davcal.CompFilter{
			Name: "VCALENDAR",
			Comps: []davcal.CompFilter{{
				Name:  "VEVENT",
				Start: start.UTC(),
				End:   end.UTC(),
			}},
		},
	}
}

func (c *Client) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return c.base.ResolveReference(ref).String()
}
