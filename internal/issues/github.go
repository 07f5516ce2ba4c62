package issues

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v30/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/steveyegge/resonator/internal/priorities"
)

const listPageSize = 100

// GitHubConfig configures a GitHubFiler.
type GitHubConfig struct {
	Owner string
	Repo  string
	Token string

	// BaseURL overrides https://api.github.com/ (GitHub Enterprise, tests).
	BaseURL string

	// Labels are applied to every created issue. The first label also scopes
	// the duplicate lookup.
	Labels []string

	// RatePerMinute caps issue creation. Zero means 30.
	RatePerMinute int
}

// GitHubFiler files tickets as GitHub issues, skipping any whose fingerprint
// marker already appears in an open issue.
type GitHubFiler struct {
	client  *github.Client
	owner   string
	repo    string
	labels  []string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewGitHubFiler builds an authenticated filer.
func NewGitHubFiler(cfg GitHubConfig, logger *zap.Logger) (*GitHubFiler, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("owner and repo are required (got %q/%q)", cfg.Owner, cfg.Repo)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	httpClient.Timeout = 30 * time.Second
	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		client.BaseURL = u
	}

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &GitHubFiler{
		client:  client,
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		labels:  append([]string(nil), cfg.Labels...),
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		logger:  logger,
	}, nil
}

// File implements Filer. On a creation failure the tickets filed so far are
// still reported alongside the error.
func (g *GitHubFiler) File(ctx context.Context, tickets []Ticket) (*Report, error) {
	report := &Report{}
	if len(tickets) == 0 {
		return report, nil
	}

	existing, err := g.openFingerprints(ctx)
	if err != nil {
		return report, err
	}

	for _, t := range tickets {
		if existing[t.Fingerprint] {
			g.logger.Debug("ticket already open", zap.String("fingerprint", t.Fingerprint), zap.String("file", t.File))
			report.Skipped = append(report.Skipped, t)
			continue
		}
		if err := g.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("waiting for rate limiter: %w", err)
		}

		labels := append([]string(nil), g.labels...)
		labels = append(labels, strings.ToLower(string(t.Severity)), priorities.Label(t.Priority))
		issue, _, err := g.client.Issues.Create(ctx, g.owner, g.repo, &github.IssueRequest{
			Title:  github.String(t.Title()),
			Body:   github.String(t.Body()),
			Labels: &labels,
		})
		if err != nil {
			return report, fmt.Errorf("creating issue for %s in %s: %w", t.Kind, t.File, err)
		}

		existing[t.Fingerprint] = true
		filed := Filed{Ticket: t, Number: issue.GetNumber(), URL: issue.GetHTMLURL()}
		report.Filed = append(report.Filed, filed)
		g.logger.Info("filed issue",
			zap.Int("number", filed.Number),
			zap.String("url", filed.URL),
			zap.String("fingerprint", t.Fingerprint),
		)
	}
	return report, nil
}

func (g *GitHubFiler) openFingerprints(ctx context.Context) (map[string]bool, error) {
	seen := make(map[string]bool)
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}
	if len(g.labels) > 0 {
		opts.Labels = []string{g.labels[0]}
	}

	for {
		page, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("listing open issues: %w", err)
		}
		for _, issue := range page {
			if fp, ok := ParseMarker(issue.GetBody()); ok {
				seen[fp] = true
			}
		}
		if resp == nil || resp.NextPage == 0 {
			return seen, nil
		}
		opts.Page = resp.NextPage
	}
}

// compile-time checks
var (
	_ Filer = (*GitHubFiler)(nil)
	_ Filer = (*DryRunFiler)(nil)
)
