package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

const defaultBaseURL = "https://api.notion.com/v1"

// Options are the database property names tasks are written to
type Options struct {
	DatabaseID       string
	TodoStatus       string
	TitleProperty    string
	AssigneeProperty string
	StatusProperty   string
	DueDateProperty  string
	DetailsProperty  string
	MeetingIDProp    string
}

// Client creates kanban pages in a Notion database. Property values are
// typed after the database schema, which is read once per client.
type Client struct {
	api     *apiclient.Client
	version string
	opts    Options

	mu         sync.Mutex
	properties map[string]property
	users      map[string]string
}

type property struct {
	Type string `json:"type"`
}

// NewClient builds a client from user settings
func NewClient(s config.IntegrationSettings, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := time.Duration(s.NotionTimeoutSeconds * float64(time.Second))
	api := apiclient.New("Notion", baseURL, nil, timeout).
		WithHeader("Authorization", "Bearer "+strings.TrimSpace(s.NotionAPIToken))
	return &Client{
		api:     api,
		version: s.NotionAPIVersion,
		opts: Options{
			DatabaseID:       strings.TrimSpace(s.NotionTasksDatabaseID),
			TodoStatus:       s.NotionTodoStatus,
			TitleProperty:    s.NotionTitleProperty,
			AssigneeProperty: s.NotionAssigneeProperty,
			StatusProperty:   s.NotionStatusProperty,
			DueDateProperty:  s.NotionDueDateProperty,
			DetailsProperty:  s.NotionDetailsProperty,
			MeetingIDProp:    s.NotionMeetingIDProp,
		},
	}
}

// CreateTask creates one page and returns its id
func (c *Client) CreateTask(ctx context.Context, item entities.ActionItem, meetingID string) (string, error) {
	props, err := c.databaseProperties(ctx)
	if err != nil {
		return "", err
	}
	values, err := c.buildProperties(ctx, item, meetingID, props)
	if err != nil {
		return "", err
	}

	body := map[string]interface{}{
		"parent":     map[string]string{"database_id": c.opts.DatabaseID},
		"properties": values,
	}
	if blocks := descriptionBlocks(item); blocks != nil {
		body["children"] = blocks
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/pages", body, &resp); err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.ID) == "" {
		return "", errors.New("Notion API create page response missing id.")
	}
	return resp.ID, nil
}

func (c *Client) buildProperties(ctx context.Context, item entities.ActionItem, meetingID string, props map[string]property) (map[string]interface{}, error) {
	out := map[string]interface{}{}

	if name := titleProperty(c.opts.TitleProperty, props); name != "" {
		out[name] = map[string]interface{}{"title": richText(apiclient.Truncate(item.Title, 2000))}
	}

	switch props[c.opts.StatusProperty].Type {
	case "status":
		out[c.opts.StatusProperty] = map[string]interface{}{"status": map[string]string{"name": c.opts.TodoStatus}}
	case "select":
		out[c.opts.StatusProperty] = map[string]interface{}{"select": map[string]string{"name": c.opts.TodoStatus}}
	}

	if item.DueDate != "" {
		switch props[c.opts.DueDateProperty].Type {
		case "date":
			out[c.opts.DueDateProperty] = map[string]interface{}{"date": map[string]string{"start": item.DueDate}}
		case "rich_text":
			out[c.opts.DueDateProperty] = map[string]interface{}{"rich_text": richText(item.DueDate)}
		}
	}

	if err := c.setAssignee(ctx, out, item, props); err != nil {
		return nil, err
	}
	setText(out, props, c.opts.DetailsProperty, item.Details)
	setText(out, props, c.opts.MeetingIDProp, meetingID)
	return out, nil
}

func (c *Client) setAssignee(ctx context.Context, out map[string]interface{}, item entities.ActionItem, props map[string]property) error {
	name := c.opts.AssigneeProperty
	kind := props[name].Type
	if kind == "" {
		return nil
	}
	if kind == "people" {
		if item.AssigneeEmail == "" {
			return nil
		}
		users, err := c.usersByEmail(ctx)
		if err != nil {
			return err
		}
		if id := users[strings.ToLower(item.AssigneeEmail)]; id != "" {
			out[name] = map[string]interface{}{"people": []map[string]string{{"id": id}}}
		}
		return nil
	}

	fallback := item.AssigneeName
	if fallback == "" {
		fallback = item.AssigneeEmail
	}
	if fallback == "" {
		return nil
	}
	switch kind {
	case "rich_text":
		out[name] = map[string]interface{}{"rich_text": richText(apiclient.Truncate(fallback, 2000))}
	case "email":
		if item.AssigneeEmail != "" {
			out[name] = map[string]interface{}{"email": item.AssigneeEmail}
		}
	case "select":
		out[name] = map[string]interface{}{"select": map[string]string{"name": apiclient.Truncate(fallback, 100)}}
	}
	return nil
}

func setText(out map[string]interface{}, props map[string]property, name, value string) {
	if value == "" {
		return
	}
	switch props[name].Type {
	case "rich_text":
		out[name] = map[string]interface{}{"rich_text": richText(apiclient.Truncate(value, 2000))}
	case "url":
		out[name] = map[string]interface{}{"url": apiclient.Truncate(value, 2000)}
	}
}

// titleProperty prefers the configured name and falls back to any title column
func titleProperty(configured string, props map[string]property) string {
	if props[configured].Type == "title" {
		return configured
	}
	for name, p := range props {
		if p.Type == "title" {
			return name
		}
	}
	return ""
}

func richText(content string) []map[string]interface{} {
	return []map[string]interface{}{{"text": map[string]string{"content": content}}}
}

func descriptionBlocks(item entities.ActionItem) []map[string]interface{} {
	var lines []string
	if item.Details != "" {
		lines = append(lines, "Detalles: "+item.Details)
	}
	if item.SourceSentence != "" {
		lines = append(lines, "Evidencia: "+item.SourceSentence)
	}
	if len(lines) == 0 {
		return nil
	}
	return []map[string]interface{}{{
		"object": "block",
		"type":   "paragraph",
		"paragraph": map[string]interface{}{
			"rich_text": []map[string]interface{}{{
				"type": "text",
				"text": map[string]string{"content": apiclient.Truncate(strings.Join(lines, "\n"), 1900)},
			}},
		},
	}}
}

func (c *Client) databaseProperties(ctx context.Context) (map[string]property, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.properties != nil {
		return c.properties, nil
	}

	var resp struct {
		Properties map[string]property `json:"properties"`
	}
	if err := c.do(ctx, http.MethodGet, "/databases/"+url.PathEscape(c.opts.DatabaseID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Properties == nil {
		return nil, errors.New("Notion database response missing properties.")
	}
	c.properties = resp.Properties
	return c.properties, nil
}

func (c *Client) usersByEmail(ctx context.Context) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.users != nil {
		return c.users, nil
	}

	users := map[string]string{}
	cursor := ""
	for {
		q := url.Values{"page_size": {"100"}}
		if cursor != "" {
			q.Set("start_cursor", cursor)
		}
		var resp struct {
			Results []struct {
				ID     string `json:"id"`
				Person *struct {
					Email string `json:"email"`
				} `json:"person"`
			} `json:"results"`
			HasMore    bool   `json:"has_more"`
			NextCursor string `json:"next_cursor"`
		}
		if err := c.do(ctx, http.MethodGet, "/users?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("failed to list Notion users: %w", err)
		}
		for _, u := range resp.Results {
			if u.ID == "" || u.Person == nil || strings.TrimSpace(u.Person.Email) == "" {
				continue
			}
			users[strings.ToLower(strings.TrimSpace(u.Person.Email))] = u.ID
		}
		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	c.users = users
	return users, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	return c.api.DoJSON(ctx, method, path, http.Header{"Notion-Version": {c.version}}, body, out)
}
