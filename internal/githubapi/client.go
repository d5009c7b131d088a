package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
)

const (
	repositoryIdentifierSeparatorConstant       = "/"
	repositoryIdentifierRequiredMessageConstant = "repository identifier must be provided"
	issueTitleRequiredMessageConstant           = "issue title must be provided"
	repositoryIdentifierErrorTemplateConstant   = "repository identifier %q is not in owner/name form"
	repositoryLookupErrorTemplateConstant       = "failed to look up repository %s: %w"
	issueListErrorTemplateConstant              = "failed to list issues labeled %q in %s: %w"
	issueCloseErrorTemplateConstant             = "failed to close issue #%d in %s: %w"
	issueCreateErrorTemplateConstant            = "failed to create issue in %s: %w"
	baseURLConfigurationErrorTemplateConstant   = "failed to configure api base url %q: %w"
	openIssueStateConstant                      = "open"
	closedIssueStateConstant                    = "closed"
	issuePageSizeConstant                       = 100
)

// ErrRepositoryIdentifierRequired indicates an empty owner/name identifier was supplied.
var ErrRepositoryIdentifierRequired = errors.New(repositoryIdentifierRequiredMessageConstant)

// ErrIssueTitleRequired indicates an issue creation request carried no title.
var ErrIssueTitleRequired = errors.New(issueTitleRequiredMessageConstant)

// RepositoryIdentifierError reports an identifier that could not be split into owner and name.
type RepositoryIdentifierError struct {
	Identifier string
}

// Error describes the malformed identifier.
func (identifierError RepositoryIdentifierError) Error() string {
	return fmt.Sprintf(repositoryIdentifierErrorTemplateConstant, identifierError.Identifier)
}

// RepositoryMetadata captures the repository attributes needed to drive a fork synchronization.
type RepositoryMetadata struct {
	NameWithOwner       string
	DefaultBranch       string
	IsFork              bool
	ParentNameWithOwner string
	ParentCloneURL      string
}

// IssueSummary identifies a single tracking issue.
type IssueSummary struct {
	Number int
	Title  string
}

// Client exposes the repository and issue operations backed by the GitHub REST API.
type Client struct {
	githubClient *github.Client
}

// NewClient constructs a Client authenticated with the provided token. An empty
// token yields an unauthenticated client subject to anonymous rate limits.
func NewClient(token string) *Client {
	var httpClient *http.Client
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) > 0 {
		tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
		httpClient = oauth2.NewClient(context.Background(), tokenSource)
	}
	return &Client{githubClient: github.NewClient(httpClient)}
}

// NewClientWithBaseURL constructs a Client targeting a non-default API endpoint,
// such as a GitHub Enterprise Server deployment.
func NewClientWithBaseURL(token string, baseURL string) (*Client, error) {
	apiClient := NewClient(token)
	enterpriseClient, configurationError := apiClient.githubClient.WithEnterpriseURLs(baseURL, baseURL)
	if configurationError != nil {
		return nil, fmt.Errorf(baseURLConfigurationErrorTemplateConstant, baseURL, configurationError)
	}
	apiClient.githubClient = enterpriseClient
	return apiClient, nil
}

// ResolveRepositoryMetadata fetches the repository and reports its default branch
// and fork parentage.
func (apiClient *Client) ResolveRepositoryMetadata(executionContext context.Context, repositoryIdentifier string) (RepositoryMetadata, error) {
	ownerName, repositoryName, identifierError := splitRepositoryIdentifier(repositoryIdentifier)
	if identifierError != nil {
		return RepositoryMetadata{}, identifierError
	}

	repository, _, lookupError := apiClient.githubClient.Repositories.Get(executionContext, ownerName, repositoryName)
	if lookupError != nil {
		return RepositoryMetadata{}, fmt.Errorf(repositoryLookupErrorTemplateConstant, repositoryIdentifier, lookupError)
	}

	repositoryMetadata := RepositoryMetadata{
		NameWithOwner: repository.GetFullName(),
		DefaultBranch: repository.GetDefaultBranch(),
		IsFork:        repository.GetFork(),
	}
	parentRepository := repository.GetParent()
	if parentRepository != nil {
		repositoryMetadata.ParentNameWithOwner = parentRepository.GetFullName()
		repositoryMetadata.ParentCloneURL = parentRepository.GetCloneURL()
	}
	return repositoryMetadata, nil
}

// ListOpenIssuesByLabel returns every open issue carrying the provided label.
func (apiClient *Client) ListOpenIssuesByLabel(executionContext context.Context, repositoryIdentifier string, labelName string) ([]IssueSummary, error) {
	ownerName, repositoryName, identifierError := splitRepositoryIdentifier(repositoryIdentifier)
	if identifierError != nil {
		return nil, identifierError
	}

	listOptions := &github.IssueListByRepoOptions{
		State:       openIssueStateConstant,
		Labels:      []string{labelName},
		ListOptions: github.ListOptions{PerPage: issuePageSizeConstant},
	}

	var issueSummaries []IssueSummary
	for {
		issuePage, response, listError := apiClient.githubClient.Issues.ListByRepo(executionContext, ownerName, repositoryName, listOptions)
		if listError != nil {
			return nil, fmt.Errorf(issueListErrorTemplateConstant, labelName, repositoryIdentifier, listError)
		}
		for _, issue := range issuePage {
			if issue.IsPullRequest() {
				continue
			}
			issueSummaries = append(issueSummaries, IssueSummary{Number: issue.GetNumber(), Title: issue.GetTitle()})
		}
		if response.NextPage == 0 {
			break
		}
		listOptions.Page = response.NextPage
	}
	return issueSummaries, nil
}

// CloseIssue transitions the identified issue to the closed state.
func (apiClient *Client) CloseIssue(executionContext context.Context, repositoryIdentifier string, issueNumber int) error {
	ownerName, repositoryName, identifierError := splitRepositoryIdentifier(repositoryIdentifier)
	if identifierError != nil {
		return identifierError
	}

	issueRequest := &github.IssueRequest{State: github.String(closedIssueStateConstant)}
	_, _, editError := apiClient.githubClient.Issues.Edit(executionContext, ownerName, repositoryName, issueNumber, issueRequest)
	if editError != nil {
		return fmt.Errorf(issueCloseErrorTemplateConstant, issueNumber, repositoryIdentifier, editError)
	}
	return nil
}

// CreateIssue opens a new issue with the provided title, body, and labels and
// returns its number.
func (apiClient *Client) CreateIssue(executionContext context.Context, repositoryIdentifier string, issueTitle string, issueBody string, labelNames []string) (int, error) {
	ownerName, repositoryName, identifierError := splitRepositoryIdentifier(repositoryIdentifier)
	if identifierError != nil {
		return 0, identifierError
	}
	trimmedTitle := strings.TrimSpace(issueTitle)
	if len(trimmedTitle) == 0 {
		return 0, ErrIssueTitleRequired
	}

	issueRequest := &github.IssueRequest{
		Title: github.String(trimmedTitle),
		Body:  github.String(issueBody),
	}
	if len(labelNames) > 0 {
		issueRequest.Labels = &labelNames
	}

	createdIssue, _, creationError := apiClient.githubClient.Issues.Create(executionContext, ownerName, repositoryName, issueRequest)
	if creationError != nil {
		return 0, fmt.Errorf(issueCreateErrorTemplateConstant, repositoryIdentifier, creationError)
	}
	return createdIssue.GetNumber(), nil
}

func splitRepositoryIdentifier(repositoryIdentifier string) (string, string, error) {
	trimmedIdentifier := strings.TrimSpace(repositoryIdentifier)
	if len(trimmedIdentifier) == 0 {
		return "", "", ErrRepositoryIdentifierRequired
	}
	identifierSegments := strings.Split(trimmedIdentifier, repositoryIdentifierSeparatorConstant)
	if len(identifierSegments) != 2 || len(identifierSegments[0]) == 0 || len(identifierSegments[1]) == 0 {
		return "", "", RepositoryIdentifierError{Identifier: trimmedIdentifier}
	}
	return identifierSegments[0], identifierSegments[1], nil
}
