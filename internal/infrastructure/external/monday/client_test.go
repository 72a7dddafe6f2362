package monday

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
	"github.com/johnquangdev/meeting-sync/pkg/config"
)

func settings(url string) config.IntegrationSettings {
	return config.IntegrationSettings{
		MondayAPIURL:            url,
		MondayAPIToken:          "tok",
		MondayTimeoutSeconds:    2,
		MondayBoardID:           "111",
		MondayGroupID:           "topics",
		MondayStatusColumnID:    "status",
		MondayTodoStatus:        "Working on it",
		MondayAssigneeColumnID:  "person",
		MondayDueDateColumnID:   "date",
		MondayDetailsColumnID:   "long_text",
		MondayMeetingIDColumnID: "text",
	}
}

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func TestCreateTask_EncodesColumnsByType(t *testing.T) {
	var created gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("Authorization"))
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case strings.Contains(req.Query, "boards("):
			_, _ = w.Write([]byte(`{"data":{"boards":[{"id":"111","columns":[
				{"id":"status","type":"status"},
				{"id":"person","type":"people"},
				{"id":"date","type":"date"},
				{"id":"long_text","type":"long_text"},
				{"id":"text","type":"text"}
			]}]}}`))
		case strings.Contains(req.Query, "users("):
			_, _ = w.Write([]byte(`{"data":{"users":[{"id":"42","email":"Ana@Example.com"}]}}`))
		case strings.Contains(req.Query, "create_item"):
			created = req
			_, _ = w.Write([]byte(`{"data":{"create_item":{"id":"9001"}}}`))
		}
	}))
	defer srv.Close()

	id, err := NewClient(settings(srv.URL)).CreateTask(context.Background(), entities.ActionItem{
		Title:          "Enviar informe",
		AssigneeEmail:  "ana@example.com",
		DueDate:        "2026-02-20",
		Details:        "Trimestral",
		SourceSentence: "Ana lo envía",
	}, "meet-1")
	require.NoError(t, err)
	assert.Equal(t, "9001", id)

	assert.Equal(t, "111", created.Variables["board_id"])
	assert.Equal(t, "topics", created.Variables["group_id"])
	var values map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(created.Variables["column_values"].(string)), &values))
	assert.Equal(t, map[string]interface{}{"label": "Working on it"}, values["status"])
	assert.Equal(t, map[string]interface{}{"date": "2026-02-20"}, values["date"])
	assert.Equal(t, map[string]interface{}{"text": "Trimestral\nEvidencia: Ana lo envía"}, values["long_text"])
	assert.Equal(t, "meet-1", values["text"])
	assert.Equal(t, map[string]interface{}{
		"personsAndTeams": []interface{}{map[string]interface{}{"id": float64(42), "kind": "person"}},
	}, values["person"])
}

func TestCreateTask_UserLookupFailureStillCreates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch {
		case strings.Contains(req.Query, "boards("):
			_, _ = w.Write([]byte(`{"data":{"boards":[{"id":"111","columns":[{"id":"person","type":"people"}]}]}}`))
		case strings.Contains(req.Query, "users("):
			_, _ = w.Write([]byte(`{"errors":[{"message":"not authorized"}]}`))
		default:
			_, hasValues := req.Variables["column_values"]
			assert.False(t, hasValues)
			_, _ = w.Write([]byte(`{"data":{"create_item":{"id":"7"}}}`))
		}
	}))
	defer srv.Close()

	id, err := NewClient(settings(srv.URL)).CreateTask(context.Background(), entities.ActionItem{Title: "x", AssigneeEmail: "a@b.co"}, "")
	require.NoError(t, err)
	assert.Equal(t, "7", id)
}

func TestCreateTask_Errors(t *testing.T) {
	s := settings("http://unused")
	s.MondayGroupID = ""
	_, err := NewClient(s).CreateTask(context.Background(), entities.ActionItem{Title: "x"}, "")
	assert.EqualError(t, err, "Monday group_id is missing.")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"a"},{"message":"b"},{"message":"c"},{"message":"d"}]}`))
	}))
	defer srv.Close()
	_, err = NewClient(settings(srv.URL)).CreateTask(context.Background(), entities.ActionItem{Title: "x"}, "")
	assert.EqualError(t, err, "Monday API error: a; b; c")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"boards":[]}}`))
	}))
	defer empty.Close()
	_, err = NewClient(settings(empty.URL)).CreateTask(context.Background(), entities.ActionItem{Title: "x"}, "")
	assert.EqualError(t, err, "Monday board was not found or is not accessible.")
}
