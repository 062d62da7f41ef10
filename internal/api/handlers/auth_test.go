package handlers_test

import (
	"net/http"
	"testing"

	"github.com/awhatson15/reminder-mini-app-sub001/internal/domain"
	"github.com/awhatson15/reminder-mini-app-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler_AuthenticateTelegram(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		request        map[string]string
		expectedStatus int
		checkResponse  func(*testing.T, *http.Response)
	}{
		{
			name:           "valid init data",
			request:        map[string]string{"initData": testutil.NewUserBuilder().WithFirstName("Ivan").InitData(t)},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, resp *http.Response) {
				var authResp testutil.AuthResponse
				testutil.AssertJSONResponse(t, resp, &authResp)
				assert.Equal(t, "Ivan", authResp.User.FirstName)
				assert.NotEmpty(t, authResp.Token)
			},
		},
		{
			name:           "tampered init data",
			request:        map[string]string{"initData": "auth_date=1&user=%7B%22id%22%3A1%7D&hash=00"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing init data",
			request:        map[string]string{},
			expectedStatus: http.StatusBadRequest,
			checkResponse: func(t *testing.T, resp *http.Response) {
				testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "initData is required")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodPost, ts.URL("/users/auth/telegram"), "", tt.request)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.checkResponse != nil {
				tt.checkResponse(t, resp)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	ts := testutil.NewTestServer(t)
	user, token := testutil.NewUserBuilder().WithFirstName("Olga").BuildAndAuthenticate(t, ts)

	tests := []struct {
		name           string
		token          string
		expectedStatus int
	}{
		{name: "authenticated", token: token, expectedStatus: http.StatusOK},
		{name: "no token", token: "", expectedStatus: http.StatusUnauthorized},
		{name: "garbage token", token: "not-a-jwt", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(t, http.MethodGet, ts.URL("/users/me"), tt.token, nil)
			testutil.AssertStatusCode(t, resp, tt.expectedStatus)
			if tt.expectedStatus == http.StatusOK {
				var me domain.User
				testutil.AssertJSONResponse(t, resp, &me)
				assert.Equal(t, user.ID, me.ID)
				assert.Equal(t, "Olga", me.FirstName)
			}
		})
	}
}

func TestAuthHandler_Preferences(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := doRequest(t, http.MethodGet, ts.URL("/users/preferences"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var prefs domain.Preferences
	testutil.AssertJSONResponse(t, resp, &prefs)
	assert.Equal(t, domain.DefaultPreferences(), prefs)

	resp = doRequest(t, http.MethodPut, ts.URL("/users/preferences"), token, map[string]string{
		"theme": "dark", "language": "en", "notificationTime": "7:00pm",
	})
	testutil.AssertErrorResponse(t, resp, http.StatusBadRequest, "notificationTime")

	resp = doRequest(t, http.MethodPut, ts.URL("/users/preferences"), token, map[string]string{
		"theme": "dark", "language": "en", "notificationTime": "19:00",
	})
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodGet, ts.URL("/users/preferences"), token, nil)
	testutil.AssertJSONResponse(t, resp, &prefs)
	assert.Equal(t, "dark", prefs.Theme)
	assert.Equal(t, "19:00", prefs.NotificationTime)
}

func TestAuthHandler_RefreshAndLogout(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := doRequest(t, http.MethodPost, ts.URL("/users/refresh-token"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
	var refreshed testutil.AuthResponse
	testutil.AssertJSONResponse(t, resp, &refreshed)
	require.NotEmpty(t, refreshed.Token)

	// The rotated-out token is revoked for ordinary calls.
	resp = doRequest(t, http.MethodGet, ts.URL("/users/me"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	resp = doRequest(t, http.MethodGet, ts.URL("/users/me"), refreshed.Token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodPost, ts.URL("/users/logout"), refreshed.Token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodGet, ts.URL("/users/me"), refreshed.Token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	resp = doRequest(t, http.MethodPost, ts.URL("/users/refresh-token"), refreshed.Token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}

func TestAuthHandler_RefreshReuseIsForbidden(t *testing.T) {
	ts := testutil.NewTestServer(t)
	_, token := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	resp := doRequest(t, http.MethodPost, ts.URL("/users/refresh-token"), token, nil)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	resp = doRequest(t, http.MethodPost, ts.URL("/users/refresh-token"), token, nil)
	testutil.AssertErrorResponse(t, resp, http.StatusForbidden, "Token reuse detected")

	resp = doRequest(t, http.MethodPost, ts.URL("/users/refresh-token"), "", nil)
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)
}
