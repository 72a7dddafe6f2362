package monday

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/internal/infrastructure/external/apiclient"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

const (
	boardQuery = `query ($board_ids: [ID!]) {
  boards(ids: $board_ids) { id name groups { id title } columns { id title type } }
}`
	usersQuery = `query { users(limit: 200) { id email } }`

	createItemMutation = `mutation ($board_id: ID!, $group_id: String!, $item_name: String!, $column_values: JSON) {
  create_item(board_id: $board_id, group_id: $group_id, item_name: $item_name, column_values: $column_values) { id }
}`
)

// Client creates items on a monday.com board. Column values are encoded
// after the board column types, which are read once per client.
type Client struct {
	api      *apiclient.Client
	settings config.IntegrationSettings

	mu      sync.Mutex
	columns map[string]string
	users   map[string]string
}

// NewClient builds a client from user settings
func NewClient(s config.IntegrationSettings) *Client {
	timeout := time.Duration(s.MondayTimeoutSeconds * float64(time.Second))
	api := apiclient.New("Monday", s.MondayAPIURL, nil, timeout).
		WithHeader("Authorization", strings.TrimSpace(s.MondayAPIToken))
	return &Client{api: api, settings: s}
}

// CreateTask creates one board item and returns its id
func (c *Client) CreateTask(ctx context.Context, item entities.ActionItem, meetingID string) (string, error) {
	boardID := strings.TrimSpace(c.settings.MondayBoardID)
	if boardID == "" {
		return "", errors.New("Monday board_id is missing.")
	}
	groupID := strings.TrimSpace(c.settings.MondayGroupID)
	if groupID == "" {
		return "", errors.New("Monday group_id is missing.")
	}

	columns, err := c.boardColumns(ctx, boardID)
	if err != nil {
		return "", err
	}

	variables := map[string]interface{}{
		"board_id":  boardID,
		"group_id":  groupID,
		"item_name": apiclient.Truncate(item.Title, 255),
	}
	if values := c.columnValues(ctx, item, meetingID, columns); len(values) > 0 {
		encoded, err := json.Marshal(values)
		if err != nil {
			return "", fmt.Errorf("failed to encode Monday column values: %w", err)
		}
		variables["column_values"] = string(encoded)
	}

	var data struct {
		CreateItem *struct {
			ID json.Number `json:"id"`
		} `json:"create_item"`
	}
	if err := c.graphql(ctx, createItemMutation, variables, &data); err != nil {
		return "", err
	}
	if data.CreateItem == nil {
		return "", errors.New("Monday API create_item response missing payload.")
	}
	id := strings.TrimSpace(data.CreateItem.ID.String())
	if id == "" {
		return "", errors.New("Monday API create_item response missing id.")
	}
	return id, nil
}

func (c *Client) columnValues(ctx context.Context, item entities.ActionItem, meetingID string, columns map[string]string) map[string]interface{} {
	s := c.settings
	values := map[string]interface{}{}

	if id := strings.TrimSpace(s.MondayStatusColumnID); id != "" && s.MondayTodoStatus != "" {
		if t := columns[id]; t == "status" || t == "dropdown" {
			values[id] = map[string]string{"label": strings.TrimSpace(s.MondayTodoStatus)}
		}
	}

	if id := strings.TrimSpace(s.MondayAssigneeColumnID); id != "" && item.AssigneeEmail != "" {
		switch columns[id] {
		case "people", "multiple-person", "person":
			// a token that cannot read users still creates the item
			if userID, ok := c.userID(ctx, item.AssigneeEmail); ok {
				values[id] = map[string]interface{}{
					"personsAndTeams": []map[string]interface{}{{"id": userID, "kind": "person"}},
				}
			}
		}
	}

	if id := strings.TrimSpace(s.MondayDueDateColumnID); id != "" && item.DueDate != "" && columns[id] == "date" {
		values[id] = map[string]string{"date": item.DueDate}
	}

	if id := strings.TrimSpace(s.MondayDetailsColumnID); id != "" {
		var lines []string
		if item.Details != "" {
			lines = append(lines, item.Details)
		}
		if item.SourceSentence != "" {
			lines = append(lines, "Evidencia: "+item.SourceSentence)
		}
		if v := encodeText(columns[id], apiclient.Truncate(strings.Join(lines, "\n"), 2000)); v != nil {
			values[id] = v
		}
	}

	if id := strings.TrimSpace(s.MondayMeetingIDColumnID); id != "" {
		if v := encodeText(columns[id], apiclient.Truncate(strings.TrimSpace(meetingID), 255)); v != nil {
			values[id] = v
		}
	}
	return values
}

func encodeText(columnType, value string) interface{} {
	if value == "" {
		return nil
	}
	switch columnType {
	case "text", "name":
		return value
	case "long-text", "long_text":
		return map[string]string{"text": value}
	}
	return nil
}

func (c *Client) boardColumns(ctx context.Context, boardID string) (map[string]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.columns != nil {
		return c.columns, nil
	}

	var data struct {
		Boards []struct {
			Columns []struct {
				ID   string `json:"id"`
				Type string `json:"type"`
			} `json:"columns"`
		} `json:"boards"`
	}
	if err := c.graphql(ctx, boardQuery, map[string]interface{}{"board_ids": []string{boardID}}, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, errors.New("Monday board was not found or is not accessible.")
	}
	columns := map[string]string{}
	for _, col := range data.Boards[0].Columns {
		if id := strings.TrimSpace(col.ID); id != "" {
			columns[id] = strings.ToLower(strings.TrimSpace(col.Type))
		}
	}
	c.columns = columns
	return columns, nil
}

func (c *Client) userID(ctx context.Context, email string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.users == nil {
		var data struct {
			Users []struct {
				ID    json.Number `json:"id"`
				Email string      `json:"email"`
			} `json:"users"`
		}
		if err := c.graphql(ctx, usersQuery, nil, &data); err != nil {
			return 0, false
		}
		users := map[string]string{}
		for _, u := range data.Users {
			if e := strings.ToLower(strings.TrimSpace(u.Email)); e != "" && u.ID != "" {
				users[e] = u.ID.String()
			}
		}
		c.users = users
	}
	id, err := strconv.ParseInt(c.users[strings.ToLower(strings.TrimSpace(email))], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

type graphQLError struct {
	Message string `json:"message"`
}

func (c *Client) graphql(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	body := map[string]interface{}{"query": query}
	if len(variables) > 0 {
		body["variables"] = variables
	}

	var resp struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := c.api.DoJSON(ctx, http.MethodPost, "", nil, body, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		var messages []string
		for _, e := range resp.Errors {
			if m := strings.TrimSpace(e.Message); m != "" {
				messages = append(messages, m)
			}
		}
		if len(messages) == 0 {
			return errors.New("Monday API returned GraphQL errors.")
		}
		if len(messages) > 3 {
			messages = messages[:3]
		}
		return errors.New("Monday API error: " + strings.Join(messages, "; "))
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return errors.New("Monday API response missing data payload.")
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return errors.New("Monday API returned invalid JSON.")
	}
	return nil
}
