// Package tracks reads active todos from a Tracks GTD server over its XML
// API.
package tracks

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appLog "dailyplanner/internal/log"
	"dailyplanner/internal/model"
	"dailyplanner/internal/todo"
	"dailyplanner/internal/tz"
)

var ErrNoBaseURL = errors.New("tracks url is empty")

// Source fetches todos from one Tracks account.
type Source struct {
	BaseURL  string
	Username string
	Password string
	Client   *http.Client
}

func (s *Source) Name() string { return "tracks" }

// Fetch adds the active todos that are due on or before day. Missing
// context or project lists only cost the labels; a failing todo list is
// an error.
func (s *Source) Fetch(ctx context.Context, day model.Date, data *model.PlannerData) error {
	if strings.TrimSpace(s.BaseURL) == "" {
		return ErrNoBaseURL
	}
	appLog.Info("tracks fetch start", "url", s.base())

	contexts, err := s.names(ctx, "/contexts.xml", "context")
	if err != nil {
		appLog.Warn("tracks: failed to fetch contexts", "error", err)
	}
	projects, err := s.names(ctx, "/projects.xml", "project")
	if err != nil {
		appLog.Warn("tracks: failed to fetch projects", "error", err)
	}

	all, err := s.todos(ctx, contexts, projects)
	if err != nil {
		return fmt.Errorf("fetch todos: %w", err)
	}
	due := todo.Select(all, day)
	data.Todos = append(data.Todos, due...)
	appLog.Info("tracks todos added", "due", len(due), "active", len(all), "day", day)
	return nil
}

type namedList struct {
	Items []namedItem `xml:",any"`
}

type namedItem struct {
	XMLName xml.Name
	ID      string `xml:"id"`
	Name    string `xml:"name"`
}

func (s *Source) names(ctx context.Context, path, element string) (map[string]string, error) {
	var list namedList
	if err := s.get(ctx, path, &list); err != nil {
		return map[string]string{}, err
	}
	out := make(map[string]string, len(list.Items))
	for _, it := range list.Items {
		if it.XMLName.Local != element {
			continue
		}
		id, name := strings.TrimSpace(it.ID), strings.TrimSpace(it.Name)
		if id != "" && name != "" {
			out[id] = name
		}
	}
	appLog.Debug("tracks names loaded", "kind", element, "count", len(out))
	return out, nil
}

type todoList struct {
	Todos []todoXML `xml:"todo"`
}

type todoXML struct {
	Description string `xml:"description"`
	ContextID   string `xml:"context-id"`
	ProjectID   string `xml:"project-id"`
	Due         string `xml:"due"`
	Notes       string `xml:"notes"`
}

func (s *Source) todos(ctx context.Context, contexts, projects map[string]string) ([]model.Todo, error) {
	var list todoList
	if err := s.get(ctx, "/todos.xml?limit_to_active_todos=1", &list); err != nil {
		return nil, err
	}
	out := make([]model.Todo, 0, len(list.Todos))
	for _, x := range list.Todos {
		desc := strings.TrimSpace(x.Description)
		if desc == "" {
			continue
		}
		t := model.Todo{
			Description: desc,
			Context:     contexts[strings.TrimSpace(x.ContextID)],
			Project:     projects[strings.TrimSpace(x.ProjectID)],
			Notes:       strings.TrimSpace(x.Notes),
		}
		if raw := strings.TrimSpace(x.Due); raw != "" {
			d, err := tz.ParseDate(raw)
			if err != nil {
				appLog.Warn("tracks: could not parse due date", "todo", desc, "due", raw, "error", err)
			} else {
				t.Due = &d
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Source) base() string {
	return strings.TrimRight(s.BaseURL, "/")
}

func (s *Source) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base()+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/xml")
	if s.Username != "" {
		req.SetBasicAuth(s.Username, s.Password)
	}

	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}
