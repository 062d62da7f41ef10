package testutil

import (
	"io"
	"net/http"
	"testing"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode verifies the HTTP response status code
func AssertStatusCode(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	assert.Equal(t, expected, resp.StatusCode, "unexpected status code")
}

// AssertJSONResponse decodes JSON response into v
func AssertJSONResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	err = json.Unmarshal(body, v)
	require.NoError(t, err, "failed to unmarshal response: %s", string(body))
}

// AssertErrorResponse verifies error response with expected status and message
func AssertErrorResponse(t *testing.T, resp *http.Response, expectedStatus int, expectedMessage string) {
	t.Helper()

	assert.Equal(t, expectedStatus, resp.StatusCode, "unexpected status code")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")

	// Error responses are plain text in this API
	assert.Contains(t, string(body), expectedMessage, "error message mismatch")
}

// AssertContactFields verifies the reconciled fields of a stored contact
func AssertContactFields(t *testing.T, contact *domain.Contact, name string, phones, emails []string) {
	t.Helper()
	assert.Equal(t, name, contact.Name, "unexpected contact name")
	assert.ElementsMatch(t, phones, []string(contact.Phones), "unexpected contact phones")
	assert.ElementsMatch(t, emails, []string(contact.Emails), "unexpected contact emails")
}

// CountRows returns the number of rows of model owned by userID
func CountRows(t *testing.T, tdb *TestDB, model interface{}, userID interface{}) int64 {
	t.Helper()

	var count int64
	err := tdb.DB.Model(model).Where("user_id = ?", userID).Count(&count).Error
	require.NoError(t, err)
	return count
}
