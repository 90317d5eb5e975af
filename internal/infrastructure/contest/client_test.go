package contest_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/contest"
)

func newContestTestServer(t *testing.T, apiHandler http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok-123", "expires_in": 3600})
	})
	mux.HandleFunc("/", apiHandler)
	return httptest.NewServer(mux)
}

func testConfig(srv *httptest.Server) config.ContestConfig {
	return config.ContestConfig{
		BaseURL:            srv.URL,
		ClientID:           "id",
		ClientSecret:       "secret",
		TokenURL:           srv.URL + "/oauth/token",
		DefaultTrackID:     "track-1",
		TimelineTemplateID: "tt-1",
	}
}

func TestClient_CreateChallenge_SendsBearerTokenAndReturnsID(t *testing.T) {
	var gotAuth string
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/challenges", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "challenge-1"})
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	id, err := c.CreateChallenge(t.Context(), ports.CreateChallengeInput{Name: "Fix the thing", ProjectID: 99, Prizes: []int{500}})
	require.NoError(t, err)
	assert.Equal(t, "challenge-1", id)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestClient_CreateChallenge_SendsSubmissionGuidelines(t *testing.T) {
	var gotBody map[string]interface{}
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "challenge-1"})
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	_, err := c.CreateChallenge(t.Context(), ports.CreateChallengeInput{
		Name:                 "Fix the thing",
		ProjectID:            99,
		Prizes:               []int{500},
		SubmissionGuidelines: "https://github.com/org/repo/issues/42",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/org/repo/issues/42", gotBody["submissionGuidelines"])
}

func TestClient_CreateChallenge_ReusesCachedToken(t *testing.T) {
	tokenCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"access_token": "tok-123", "expires_in": 3600})
	})
	mux.HandleFunc("/challenges", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "challenge-1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	_, err := c.CreateChallenge(t.Context(), ports.CreateChallengeInput{Name: "a", ProjectID: 1})
	require.NoError(t, err)
	_, err = c.CreateChallenge(t.Context(), ports.CreateChallengeInput{Name: "b", ProjectID: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, tokenCalls)
}

func TestClient_GetChallenge(t *testing.T) {
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "challenge-1", "status": "Active", "name": "Fix the thing"})
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	ch, err := c.GetChallenge(t.Context(), "challenge-1")
	require.NoError(t, err)
	assert.Equal(t, ports.ChallengeStatusActive, ch.CurrentStatus)
}

func TestClient_UpdateChallenge_SendsPatch(t *testing.T) {
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Completed", body["status"])
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	status := ports.ChallengeStatusCompleted
	err := c.UpdateChallenge(t.Context(), "challenge-1", ports.UpdateChallengeInput{Status: &status})
	assert.NoError(t, err)
}

func TestClient_CloseChallenge_IncludesWinner(t *testing.T) {
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		winners, ok := body["winners"].([]interface{})
		require.True(t, ok)
		require.Len(t, winners, 1)
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	err := c.CloseChallenge(t.Context(), "challenge-1", ports.Winner{UserID: 7, Handle: "winner-handle", Placement: 1})
	assert.NoError(t, err)
}

func TestClient_AddResource(t *testing.T) {
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	err := c.AddResource(t.Context(), "challenge-1", "winner-handle", ports.RoleSubmitter)
	assert.NoError(t, err)
}

func TestClient_GetBillingAccountID(t *testing.T) {
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/99", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"billingAccountId": 555})
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	id, err := c.GetBillingAccountID(t.Context(), 99)
	require.NoError(t, err)
	assert.Equal(t, "555", id)
}

func TestClient_CancelChallenge_IsLoggedNoOp(t *testing.T) {
	c := contest.NewClient(config.ContestConfig{})
	assert.NoError(t, c.CancelChallenge(t.Context(), "challenge-1"))
}

func TestClient_ErrorStatus_ReturnsExternalAPIError(t *testing.T) {
	srv := newContestTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	})
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	_, err := c.GetChallenge(t.Context(), "challenge-1")
	require.Error(t, err)
	assert.Equal(t, domainerrors.KindExternalAPI, domainerrors.KindOf(err))
}

func TestClient_TokenEndpointFails_ReturnsExternalAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := contest.NewClient(testConfig(srv))
	_, err := c.CreateChallenge(t.Context(), ports.CreateChallengeInput{Name: "a", ProjectID: 1})
	require.Error(t, err)
	assert.Equal(t, domainerrors.KindExternalAPI, domainerrors.KindOf(err))
}
