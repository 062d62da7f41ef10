package handlers_test

import (
	"net/http"
	"testing"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderHandler_CRUD(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
	}{
		{
			name: "valid yearly reminder",
			body: map[string]interface{}{
				"title": "Anniversary", "type": "anniversary", "day": 14, "month": 2,
				"isRecurring": true, "recurrencePeriod": "yearly", "notifyDaysBefore": 3,
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "unknown type",
			body:           map[string]interface{}{"title": "x", "type": "party", "day": 1, "month": 1},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "31 April",
			body:           map[string]interface{}{"title": "x", "day": 31, "month": 4},
			expectedStatus: http.StatusBadRequest,
		},
	}

	var created domain.Reminder
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, ts.URL("/reminders"), token, tt.body)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.expectedStatus == http.StatusCreated {
				testutil.AssertJSONResponse(t, resp, &created)
			}
		})
	}
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.RecurrenceYearly, created.RecurrencePeriod)

	path := ts.URL("/reminders/" + created.ID.String())

	resp := doRequest(t, http.MethodPut, path, token, map[string]interface{}{
		"title": "Wedding anniversary", "type": "anniversary", "day": 14, "month": 2,
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodGet, ts.URL("/reminders"), token, nil)
	var list []domain.Reminder
	testutil.AssertJSONResponse(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "Wedding anniversary", list[0].Title)

	resp = doRequest(t, http.MethodDelete, path, token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusNoContent)

	resp = doRequest(t, http.MethodGet, path, token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)
}
