package handlers_test

import (
	"net/http"
	"testing"

	"contactsapi/internal/models"
	"contactsapi/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newContact(first, last, mail, birthday string) map[string]any {
	return map[string]any{
		"first_name": first,
		"last_name":  last,
		"email":      mail,
		"phone":      "+380501234567",
		"birthday":   birthday,
	}
}

func (s *testServer) createContact(token string, body map[string]any) models.Contact {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/v1/contacts", body, token)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var contact models.Contact
	decode(s.t, w, &contact)
	return contact
}

func TestContactHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantErr    string
	}{
		{
			name:       "Success",
			body:       newContact("Bob", "Builder", "bob@example.com", "1990-05-17"),
			wantStatus: http.StatusCreated,
		},
		{
			name:       "Missing Birthday",
			body:       newContact("Bob", "Builder", "bob@example.com", ""),
			wantStatus: http.StatusBadRequest,
			wantErr:    "birthday is required",
		},
		{
			name:       "Malformed Birthday",
			body:       newContact("Bob", "Builder", "bob@example.com", "17/05/1990"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "Invalid Email",
			body:       newContact("Bob", "Builder", "bob", "1990-05-17"),
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "Invalid Phone",
			body: map[string]any{
				"first_name": "Bob",
				"last_name":  "Builder",
				"email":      "bob@example.com",
				"phone":      "call me",
				"birthday":   "1990-05-17",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{})
			user := s.env.CreateTestUser("alice", "alice@example.com", "secret1")

			w := s.do(http.MethodPost, "/api/v1/contacts", tt.body, s.env.GetTestJWT(user))
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantErr != "" {
				require.Equal(t, tt.wantErr, errorBody(t, w))
			}
			if tt.wantStatus == http.StatusCreated {
				var contact models.Contact
				decode(t, w, &contact)
				require.NotEqual(t, uuid.Nil, contact.ID)
				require.Equal(t, "Bob", contact.FirstName)
				require.Equal(t, "1990-05-17", contact.Birthday.String())
			}
		})
	}
}

func TestContactHandler_CRUD(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	alice := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
	token := s.env.GetTestJWT(alice)

	created := s.createContact(token, newContact("Bob", "Builder", "bob@example.com", "1990-05-17"))
	path := "/api/v1/contacts/" + created.ID.String()

	w := s.do(http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPut, path, models.UpdateContactRequest{Phone: testutil.Ptr("+380671112233")}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Contact
	decode(t, w, &updated)
	require.Equal(t, "+380671112233", updated.Phone)
	require.Equal(t, "Bob", updated.FirstName)

	w = s.do(http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, path, nil, token)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, "contact not found", errorBody(t, w))

	w = s.do(http.MethodDelete, path, nil, token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/contacts/not-a-uuid", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestContactHandler_OwnerIsolation(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	alice := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
	mallory := s.env.CreateTestUser("mallory", "mallory@example.com", "secret1")

	contact := s.createContact(s.env.GetTestJWT(alice), newContact("Bob", "Builder", "bob@example.com", "1990-05-17"))
	path := "/api/v1/contacts/" + contact.ID.String()
	malloryToken := s.env.GetTestJWT(mallory)

	require.Equal(t, http.StatusNotFound, s.do(http.MethodGet, path, nil, malloryToken).Code)
	require.Equal(t, http.StatusNotFound, s.do(http.MethodPut, path, models.UpdateContactRequest{FirstName: testutil.Ptr("Eve")}, malloryToken).Code)
	require.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, path, nil, malloryToken).Code)

	w := s.do(http.MethodGet, "/api/v1/contacts", nil, malloryToken)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Contact
	decode(t, w, &list)
	require.Empty(t, list)
}

func TestContactHandler_List(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantNames  []string
	}{
		{name: "Defaults", query: "", wantStatus: http.StatusOK, wantNames: []string{"Ann", "Bob", "Cid"}},
		{name: "Skip And Limit", query: "?skip=1&limit=1", wantStatus: http.StatusOK, wantNames: []string{"Bob"}},
		{name: "Limit Too Large", query: "?limit=101", wantStatus: http.StatusBadRequest},
		{name: "Negative Skip", query: "?skip=-1", wantStatus: http.StatusBadRequest},
		{name: "Not A Number", query: "?limit=ten", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{})
			user := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
			token := s.env.GetTestJWT(user)
			s.createContact(token, newContact("Cid", "Campeador", "cid@example.com", "1990-01-01"))
			s.createContact(token, newContact("Ann", "Abbott", "ann@example.com", "1990-01-01"))
			s.createContact(token, newContact("Bob", "Builder", "bob@example.com", "1990-01-01"))

			w := s.do(http.MethodGet, "/api/v1/contacts"+tt.query, nil, token)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var list []models.Contact
			decode(t, w, &list)
			names := make([]string, 0, len(list))
			for _, c := range list {
				names = append(names, c.FirstName)
			}
			require.Equal(t, tt.wantNames, names)
		})
	}
}

func TestContactHandler_Search(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	user := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
	token := s.env.GetTestJWT(user)
	s.createContact(token, newContact("Bob", "Builder", "bob@example.com", "1990-05-17"))
	s.createContact(token, newContact("Ann", "Abbott", "ann@work.org", "1990-05-17"))

	w := s.do(http.MethodGet, "/api/v1/contacts/search?q=WORK", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Contact
	decode(t, w, &list)
	require.Len(t, list, 1)
	require.Equal(t, "Ann", list[0].FirstName)

	w = s.do(http.MethodGet, "/api/v1/contacts/search", nil, token)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "search query is required", errorBody(t, w))
}

func TestContactHandler_UpcomingBirthdays(t *testing.T) {
	// the test clock starts on 2024-03-20
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantNames  []string
	}{
		{name: "Default Window", query: "", wantStatus: http.StatusOK, wantNames: []string{"Today", "Soon"}},
		{name: "Today Only", query: "?days=0", wantStatus: http.StatusOK, wantNames: []string{"Today"}},
		{name: "Month", query: "?days=30", wantStatus: http.StatusOK, wantNames: []string{"Today", "Soon", "Later"}},
		{name: "Too Many Days", query: "?days=366", wantStatus: http.StatusBadRequest},
		{name: "Negative Days", query: "?days=-1", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, serverOptions{})
			user := s.env.CreateTestUser("alice", "alice@example.com", "secret1")
			token := s.env.GetTestJWT(user)
			s.createContact(token, newContact("Later", "Person", "later@example.com", "1985-04-10"))
			s.createContact(token, newContact("Soon", "Person", "soon@example.com", "1990-03-24"))
			s.createContact(token, newContact("Today", "Person", "today@example.com", "2000-03-20"))
			s.createContact(token, newContact("Past", "Person", "past@example.com", "1990-03-19"))

			w := s.do(http.MethodGet, "/api/v1/contacts/birthdays"+tt.query, nil, token)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var list []models.Contact
			decode(t, w, &list)
			names := make([]string, 0, len(list))
			for _, c := range list {
				names = append(names, c.FirstName)
			}
			require.Equal(t, tt.wantNames, names)
		})
	}
}

func TestContactHandler_RequiresToken(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodGet, "/api/v1/contacts", nil, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
