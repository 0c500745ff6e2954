package caldav

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"dailyplanner/internal/ics"
	"dailyplanner/internal/model"
	"dailyplanner/internal/tz"
)

var target = model.Date{Year: 2026, Month: time.February, Day: 16}

func helsinki(t *testing.T) tz.Resolver {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	return tz.NewResolver(loc)
}

func vcalendar(events ...string) string {
	return "BEGIN:VCALENDAR\nVERSION:2.0\nPRODID:-//test//EN\n" + strings.Join(events, "") + "END:VCALENDAR\n"
}

func vevent(lines ...string) string {
	return "BEGIN:VEVENT\n" + strings.Join(lines, "\n") + "\nEND:VEVENT\n"
}

const okStatus = "HTTP/1.1 200 OK"

func davResponse(href, status, props string) string {
	return fmt.Sprintf(`<d:response><d:href>%s</d:href><d:propstat><d:prop>%s</d:prop><d:status>%s</d:status></d:propstat></d:response>`, href, props, status)
}

func multistatusBody(responses ...string) string {
	return `<?xml version="1.0" encoding="utf-8"?><d:multistatus xmlns:d="DAV:" xmlns:c="urn:ietf:params:xml:ns:caldav">` +
		strings.Join(responses, "") + `</d:multistatus>`
}

type fakeServer struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
	failing  map[string]bool
}

func newFakeServer(t *testing.T) (*fakeServer, *httptest.Server) {
	t.Helper()
	f := &fakeServer{
		bodies: map[string]string{
			"/calendars/alice/work/": vcalendar(
				vevent("UID:standup", "SUMMARY:Standup", "DTSTART;TZID=Europe/Helsinki:20260202T091500",
					"DTEND;TZID=Europe/Helsinki:20260202T093000", "RRULE:FREQ=WEEKLY;BYDAY=MO"),
				vevent("UID:dentist", "SUMMARY:Dentist", "DTSTART:20260216T120000Z", "DTEND:20260216T130000Z",
					"LOCATION:Main St 1"),
			),
			"/calendars/alice/personal/": vcalendar(
				vevent("UID:holiday", "SUMMARY:Holiday", "DTSTART;VALUE=DATE:20260216", "DTEND;VALUE=DATE:20260217"),
				vevent("UID:other", "SUMMARY:Other day", "DTSTART:20260217T120000Z"),
			),
		},
		failing: map[string]bool{},
	}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeServer) serve(w http.ResponseWriter, r *http.Request) {
	user, pass, ok := r.BasicAuth()
	if !ok || user != "alice" || pass != "secret" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	body, _ := io.ReadAll(r.Body)

	// The endpoint itself may be requested with or without its trailing slash.
	path := strings.TrimSuffix(r.URL.Path, "/") + "/"

	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+path)
	fail := f.failing[path]
	f.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	var out string
	switch {
	case r.Method == "PROPFIND" && path == "/dav/":
		out = multistatusBody(davResponse("/dav/", okStatus,
			`<d:current-user-principal><d:href>/principals/alice/</d:href></d:current-user-principal>`))
	case r.Method == "PROPFIND" && path == "/principals/alice/":
		out = multistatusBody(davResponse("/principals/alice/", okStatus,
			`<c:calendar-home-set><d:href>/calendars/alice/</d:href></c:calendar-home-set>`))
	case r.Method == "PROPFIND" && path == "/calendars/alice/":
		if r.Header.Get("Depth") != "1" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		out = multistatusBody(
			davResponse("/calendars/alice/", okStatus, `<d:resourcetype><d:collection/></d:resourcetype>`),
			davResponse("/calendars/alice/work/", okStatus,
				`<d:resourcetype><d:collection/><c:calendar/></d:resourcetype><d:displayname>Work</d:displayname>`),
			davResponse("/calendars/alice/personal/", okStatus,
				`<d:resourcetype><d:collection/><c:calendar/></d:resourcetype><d:displayname>Personal</d:displayname>`),
		)
	case r.Method == "REPORT":
		q := string(body)
		if !strings.Contains(q, `start="20260215T220000Z"`) || !strings.Contains(q, `end="20260216T220000Z"`) ||
			!strings.Contains(q, `name="VEVENT"`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ical, ok := f.bodies[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		out = multistatusBody(davResponse(path+"obj.ics", okStatus,
			`<c:calendar-data>`+ical+`</c:calendar-data>`))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusMultiStatus)
	io.WriteString(w, out)
}

func (f *fakeServer) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, method+" ") {
			n++
		}
	}
	return n
}

func newSource(t *testing.T, srv *httptest.Server, password string, calendars ...string) *Source {
	t.Helper()
	client, err := NewClient(srv.URL+"/dav/", "alice", password, srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return &Source{Client: client, Calendars: calendars, Resolver: helsinki(t), Policy: ics.KeepOnFailure}
}

func titles(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.CalendarName+"/"+ev.Title)
	}
	return out
}

func TestDiscover(t *testing.T) {
	_, srv := newFakeServer(t)
	src := newSource(t, srv, "secret")

	cals, err := src.Client.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(cals) != 2 {
		t.Fatalf("got %d calendars, want 2: %+v", len(cals), cals)
	}
	if cals[0].Name != "Work" || cals[0].URL != srv.URL+"/calendars/alice/work/" {
		t.Errorf("unexpected first calendar: %+v", cals[0])
	}
}

func TestSourceFetchAllCalendars(t *testing.T) {
	_, srv := newFakeServer(t)
	src := newSource(t, srv, "secret")

	data := model.NewPlannerData(target)
	if err := src.Fetch(context.Background(), target, data); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	got := titles(data.Events)
	want := []string{"Work/Standup", "Work/Dentist", "Personal/Holiday"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("events = %v, want %v", got, want)
	}

	standup := data.Events[0]
	if standup.Start == nil || *standup.Start != (model.Clock{Hour: 9, Minute: 15}) {
		t.Errorf("standup start = %v, want 09:15", standup.Start)
	}
	if standup.End == nil || *standup.End != (model.Clock{Hour: 9, Minute: 30}) {
		t.Errorf("standup end = %v, want 09:30", standup.End)
	}
	dentist := data.Events[1]
	if *dentist.Start != (model.Clock{Hour: 14}) || dentist.Location != "Main St 1" {
		t.Errorf("dentist = %+v", dentist)
	}
	if !data.Events[2].AllDay {
		t.Error("holiday should be all-day")
	}
}

func TestSourceFetchNameFilter(t *testing.T) {
	_, srv := newFakeServer(t)
	src := newSource(t, srv, "secret", "Personal")

	data := model.NewPlannerData(target)
	if err := src.Fetch(context.Background(), target, data); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := titles(data.Events); len(got) != 1 || got[0] != "Personal/Holiday" {
		t.Fatalf("events = %v", got)
	}
}

func TestSourceFetchExplicitURLSkipsDiscovery(t *testing.T) {
	f, srv := newFakeServer(t)
	url := srv.URL + "/calendars/alice/work/"
	src := newSource(t, srv, "secret", url)

	data := model.NewPlannerData(target)
	if err := src.Fetch(context.Background(), target, data); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if f.count("PROPFIND") != 0 {
		t.Errorf("explicit calendar URL should not trigger discovery")
	}
	if len(data.Events) != 2 || data.Events[0].CalendarName != url {
		t.Fatalf("events = %v", titles(data.Events))
	}
}

func TestSourceFetchPartialFailure(t *testing.T) {
	f, srv := newFakeServer(t)
	f.failing["/calendars/alice/work/"] = true
	src := newSource(t, srv, "secret")

	data := model.NewPlannerData(target)
	err := src.Fetch(context.Background(), target, data)
	if err == nil || !strings.Contains(err.Error(), "Work") {
		t.Fatalf("err = %v, want failure naming Work", err)
	}
	if got := titles(data.Events); len(got) != 1 || got[0] != "Personal/Holiday" {
		t.Fatalf("events = %v, want the healthy calendar only", got)
	}
}

func TestSourceFetchUnauthorized(t *testing.T) {
	_, srv := newFakeServer(t)
	src := newSource(t, srv, "wrong")

	data := model.NewPlannerData(target)
	err := src.Fetch(context.Background(), target, data)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want 401", err)
	}
	if len(data.Events) != 0 {
		t.Fatalf("events = %v, want none", titles(data.Events))
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com", "::bad"} {
		if _, err := NewClient(u, "", "", nil); err == nil {
			t.Errorf("NewClient(%q) should fail", u)
		}
	}
}

func TestDiscoverWithoutPrincipal(t *testing.T) {
	_, srv := newFakeServer(t)
	client, err := NewClient(srv.URL+"/calendars/alice/", "alice", "secret", srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cals, err := client.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(cals) != 2 || cals[1].Name != "Personal" {
		t.Fatalf("calendars = %+v", cals)
	}
}

func TestQueryRejectsForeignHost(t *testing.T) {
	_, srv := newFakeServer(t)
	src := newSource(t, srv, "secret")
	start, end := src.Resolver.Window(target)
	_, err := src.Client.Query(context.Background(), Calendar{URL: "https://other.example.com/cal/"}, start, end)
	if err == nil {
		t.Fatal("expected an error for a calendar on another host")
	}
}
