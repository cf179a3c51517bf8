//go:build unit

package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/infrastructure/repositories/github"
)

func TestGitHubProviderRepository_CreatePullRequest(t *testing.T) {
	t.Parallel()

	t.Run("should open the pull request on the enterprise API", func(t *testing.T) {
		t.Parallel()

		// given
		var path, authorization string
		var payload map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			authorization = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&payload)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number":12,"title":"app=2.3.5","state":"open","html_url":"https://gh/pr/12"}`))
		}))
		defer server.Close()
		provider, err := github.NewGitHubProviderRepository(entities.ProviderSettings{
			Token: "secret", BaseURL: server.URL,
		})
		require.NoError(t, err)

		// when
		pr, err := provider.CreatePullRequest(context.Background(), entities.PullRequestInput{
			Title:             "app=2.3.5",
			Description:       "body",
			SourceBranch:      "dev",
			DestinationBranch: "dev",
			Repository:        "ccos/meta-ccos",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "github", provider.Name())
		assert.Equal(t, "/api/v3/repos/ccos/meta-ccos/pulls", path)
		assert.Equal(t, "Bearer secret", authorization)
		assert.Equal(t, "dev", payload["head"])
		assert.Equal(t, "dev", payload["base"])
		assert.Equal(t, "body", payload["body"])
		assert.Equal(t, &entities.PullRequest{ID: 12, Title: "app=2.3.5", URL: "https://gh/pr/12", Status: "open"}, pr)
	})

	t.Run("should fail when the API rejects the request", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"Validation Failed"}`))
		}))
		defer server.Close()
		provider, err := github.NewGitHubProviderRepository(entities.ProviderSettings{
			Token: "secret", BaseURL: server.URL,
		})
		require.NoError(t, err)

		// when
		pr, err := provider.CreatePullRequest(context.Background(), entities.PullRequestInput{
			Repository: "ccos/meta-ccos",
		})

		// then
		require.Error(t, err)
		assert.Nil(t, pr)
		assert.Contains(t, err.Error(), "Validation Failed")
	})

	t.Run("should reject a repository without owner", func(t *testing.T) {
		t.Parallel()

		// given
		provider, err := github.NewGitHubProviderRepository(entities.ProviderSettings{Token: "secret"})
		require.NoError(t, err)

		// when
		_, err = provider.CreatePullRequest(context.Background(), entities.PullRequestInput{Repository: "meta-ccos"})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner/name")
	})
}

func TestGitHubProviderRepository_ListPullRequests(t *testing.T) {
	t.Parallel()

	t.Run("should walk every page of open pull requests", func(t *testing.T) {
		t.Parallel()

		// given
		var states []string
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/v3/repos/ccos/meta-ccos/pulls", r.URL.Path)
			states = append(states, r.URL.Query().Get("state"))
			if r.URL.Query().Get("page") == "2" {
				_, _ = w.Write([]byte(`[{"number":4,"title":"lib=1.1","state":"open",` +
					`"head":{"ref":"dev"},"base":{"ref":"dev"}}]`))
				return
			}
			w.Header().Set("Link", `<`+server.URL+`/api/v3/repos/ccos/meta-ccos/pulls?state=open&page=2>; rel="next"`)
			_, _ = w.Write([]byte(`[{"number":12,"title":"app=2.3.5","state":"open","html_url":"https://gh/pr/12",` +
				`"head":{"ref":"dev"},"base":{"ref":"main"},"user":{"login":"bump-bot"}}]`))
		}))
		defer server.Close()
		provider, err := github.NewGitHubProviderRepository(entities.ProviderSettings{
			Token: "secret", BaseURL: server.URL,
		})
		require.NoError(t, err)

		// when
		prs, err := provider.ListPullRequests(context.Background(), "ccos/meta-ccos")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"open", "open"}, states)
		assert.Equal(t, []entities.PullRequest{
			{
				ID: 12, Title: "app=2.3.5", URL: "https://gh/pr/12", Status: "open",
				SourceBranch: "dev", DestinationBranch: "main", Author: "bump-bot",
			},
			{ID: 4, Title: "lib=1.1", Status: "open", SourceBranch: "dev", DestinationBranch: "dev"},
		}, prs)
	})

	t.Run("should wrap the API error", func(t *testing.T) {
		t.Parallel()

		// given
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		}))
		defer server.Close()
		provider, err := github.NewGitHubProviderRepository(entities.ProviderSettings{
			Token: "secret", BaseURL: server.URL,
		})
		require.NoError(t, err)

		// when
		prs, err := provider.ListPullRequests(context.Background(), "ccos/missing")

		// then
		require.Error(t, err)
		assert.Nil(t, prs)
		assert.Contains(t, err.Error(), "failed to list pull requests of ccos/missing")
	})

	t.Run("should reject a repository without owner", func(t *testing.T) {
		t.Parallel()

		// given
		provider, err := github.NewGitHubProviderRepository(entities.ProviderSettings{Token: "secret"})
		require.NoError(t, err)

		// when
		_, err = provider.ListPullRequests(context.Background(), "meta-ccos")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "owner/name")
	})
}
