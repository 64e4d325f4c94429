// Package github submits prompt change requests as GitHub pull requests.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gogithub "github.com/google/go-github/v57/github"
	"github.com/viant/planner/internal/clock"
	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/service/capability"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const commitMessage = "Update system prompt"

// Submitter implements capability.Invoker for submit_change_request: it
// branches off the base branch, writes the prompt file and opens a pull
// request.
type Submitter struct {
	config *Config
	client *gogithub.Client
	logger *zap.Logger
}

// Option customises a Submitter.
type Option func(s *Submitter)

// WithLogger sets the submitter logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Submitter) { s.logger = logger }
}

// New creates a submitter for the configured repository.
func New(ctx context.Context, config *Config, options ...Option) (*Submitter, error) {
	if !config.Enabled() {
		return nil, fmt.Errorf("github: owner and repo are required")
	}
	config.Init()

	var httpClient *http.Client
	if config.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	client := gogithub.NewClient(httpClient)
	if config.APIURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(config.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("github: invalid api url %s: %w", config.APIURL, err)
		}
		client.BaseURL = baseURL
	}
	ret := &Submitter{config: config, client: client}
	for _, option := range options {
		option(ret)
	}
	ret.logger = logging.OrNop(ret.logger)
	return ret, nil
}

// Capability binds the submitter to the submit_change_request contract.
func (s *Submitter) Capability() *capability.Capability {
	return capability.LookupDefinition(capability.SubmitChangeRequest).Bind(s)
}

// Invoke opens the pull request and returns its url and number.
func (s *Submitter) Invoke(ctx context.Context, payload capability.Payload) (capability.Result, error) {
	promptText, _ := payload["prompt_text"].(string)
	reason, _ := payload["reason"].(string)
	owner, repo := s.config.Owner, s.config.Repo
	branch := fmt.Sprintf("%s-%d", s.config.BranchPrefix, clock.Now().Unix())

	baseRef, _, err := s.client.Git.GetRef(ctx, owner, repo, "heads/"+s.config.Base)
	if err != nil {
		return nil, fmt.Errorf("failed to read base branch %s: %w", s.config.Base, err)
	}
	_, _, err = s.client.Git.CreateRef(ctx, owner, repo, &gogithub.Reference{
		Ref:    gogithub.String("refs/heads/" + branch),
		Object: &gogithub.GitObject{SHA: baseRef.Object.SHA},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create branch %s: %w", branch, err)
	}

	if err = s.writePrompt(ctx, branch, promptText); err != nil {
		return nil, err
	}

	body := "Automated update of the system prompt."
	if reason != "" {
		body += "\n\nReason: " + reason
	}
	pr, _, err := s.client.PullRequests.Create(ctx, owner, repo, &gogithub.NewPullRequest{
		Title: gogithub.String(commitMessage),
		Head:  gogithub.String(branch),
		Base:  gogithub.String(s.config.Base),
		Body:  gogithub.String(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pull request: %w", err)
	}
	s.logger.Info("pull request opened",
		zap.String("url", pr.GetHTMLURL()),
		zap.Int("number", pr.GetNumber()),
		zap.String("branch", branch))
	return capability.Result{
		"change_request_url":    pr.GetHTMLURL(),
		"change_request_number": pr.GetNumber(),
	}, nil
}

func (s *Submitter) writePrompt(ctx context.Context, branch, promptText string) error {
	owner, repo, path := s.config.Owner, s.config.Repo, s.config.Path
	options := &gogithub.RepositoryContentFileOptions{
		Message: gogithub.String(commitMessage),
		Content: []byte(promptText),
		Branch:  gogithub.String(branch),
	}
	existing, _, resp, err := s.client.Repositories.GetContents(ctx, owner, repo, path, &gogithub.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		options.SHA = existing.SHA
		_, _, err = s.client.Repositories.UpdateFile(ctx, owner, repo, path, options)
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		_, _, err = s.client.Repositories.CreateFile(ctx, owner, repo, path, options)
	case err == nil:
		return fmt.Errorf("%s is not a file", path)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s on %s: %w", path, branch, err)
	}
	return nil
}

var _ capability.Invoker = (*Submitter)(nil)
