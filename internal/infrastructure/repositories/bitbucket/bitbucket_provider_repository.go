package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rios0rios0/recipebump/internal/domain/entities"
	"github.com/rios0rios0/recipebump/internal/domain/repositories"
)

const (
	providerName   = "bitbucket"
	defaultBaseURL = "https://api.bitbucket.org"
	requestTimeout = 30 * time.Second
	maxListPages   = 20
)

// BitbucketProviderRepository implements repositories.PullRequestRepository for Bitbucket Cloud.
type BitbucketProviderRepository struct {
	baseURL    string
	username   string
	token      string
	httpClient *http.Client
}

// NewBitbucketProviderRepository authenticates with basic auth when a username is set
// (app password) and with a bearer token otherwise.
func NewBitbucketProviderRepository(settings entities.ProviderSettings) (repositories.PullRequestRepository, error) {
	if settings.Token == "" {
		return nil, fmt.Errorf("%w: bitbucket token is required", entities.ErrInvalidConfig)
	}
	baseURL := settings.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &BitbucketProviderRepository{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   settings.Username,
		token:      settings.Token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}, nil
}

func (p *BitbucketProviderRepository) Name() string { return providerName }

type branchRef struct {
	Name string `json:"name"`
}

type repositoryRef struct {
	FullName string `json:"full_name"`
}

type endpoint struct {
	Branch     branchRef      `json:"branch"`
	Repository *repositoryRef `json:"repository,omitempty"`
}

type createPullRequestPayload struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Source      endpoint `json:"source"`
	Destination endpoint `json:"destination"`
}

type pullRequestResponse struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	State       string   `json:"state"`
	Source      endpoint `json:"source"`
	Destination endpoint `json:"destination"`
	Author      struct {
		DisplayName string `json:"display_name"`
	} `json:"author"`
	Links struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"links"`
}

type pullRequestPage struct {
	Values []pullRequestResponse `json:"values"`
	Next   string                `json:"next"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *BitbucketProviderRepository) CreatePullRequest(
	ctx context.Context,
	input entities.PullRequestInput,
) (*entities.PullRequest, error) {
	if input.Repository == "" {
		return nil, fmt.Errorf("repository is required to create a pull request")
	}

	payload := createPullRequestPayload{
		Title:       input.Title,
		Description: input.Description,
		Source: endpoint{
			Branch:     branchRef{Name: input.SourceBranch},
			Repository: &repositoryRef{FullName: input.Repository},
		},
		Destination: endpoint{Branch: branchRef{Name: input.DestinationBranch}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	apiURL := fmt.Sprintf("%s/2.0/repositories/%s/pullrequests", p.baseURL, input.Repository)
	var pr pullRequestResponse
	if err = p.do(ctx, http.MethodPost, apiURL, body, &pr); err != nil {
		return nil, fmt.Errorf("failed to create pull request %w", err)
	}
	converted := pr.toEntity()
	return &converted, nil
}

// ListPullRequests follows the "next" links of the paginated answer, up to maxListPages pages.
func (p *BitbucketProviderRepository) ListPullRequests(
	ctx context.Context,
	repository string,
) ([]entities.PullRequest, error) {
	if repository == "" {
		return nil, fmt.Errorf("repository is required to list pull requests")
	}

	query := url.Values{"state": {"OPEN"}, "sort": {"-created_on"}}
	next := fmt.Sprintf("%s/2.0/repositories/%s/pullrequests?%s", p.baseURL, repository, query.Encode())

	var prs []entities.PullRequest
	for page := 0; next != "" && page < maxListPages; page++ {
		var answer pullRequestPage
		if err := p.do(ctx, http.MethodGet, next, nil, &answer); err != nil {
			return nil, fmt.Errorf("failed to list pull requests of %s %w", repository, err)
		}
		for _, pr := range answer.Values {
			prs = append(prs, pr.toEntity())
		}
		next = answer.Next
	}
	return prs, nil
}

// do sends one authenticated request and decodes a 2xx answer into out. Failures read
// "(status N): message" so callers can prefix them.
func (p *BitbucketProviderRepository) do(ctx context.Context, method, apiURL string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("(request): %w", err)
	}
	if p.username != "" {
		req.SetBasicAuth(p.username, p.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("(bitbucket API request): %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("(reading response): %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr errorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("(status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("(status %d): %s", resp.StatusCode, string(respBody))
	}

	if err = json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("(decoding response): %w", err)
	}
	return nil
}

func (it pullRequestResponse) toEntity() entities.PullRequest {
	return entities.PullRequest{
		ID:                it.ID,
		Title:             it.Title,
		URL:               it.Links.HTML.Href,
		Status:            it.State,
		SourceBranch:      it.Source.Branch.Name,
		DestinationBranch: it.Destination.Branch.Name,
		Author:            it.Author.DisplayName,
	}
}
