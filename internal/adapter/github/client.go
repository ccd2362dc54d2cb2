package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/couchcryptid/activity-insights-service/internal/domain"
	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub REST API.
const DefaultBaseURL = "https://api.github.com/"

const (
	perPage       = 100
	pushEventType = "PushEvent"
)

// Client implements fetch.EventsSource using the GitHub events API.
type Client struct {
	gh     *gh.Client
	logger *slog.Logger
}

// NewClient creates a GitHub events client. An empty token uses anonymous
// access; an empty baseURL uses DefaultBaseURL.
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	client := gh.NewClient(httpClient)

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse github base url: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client, logger: logger}, nil
}

// UserEventsPage returns one page of events performed by a user.
func (c *Client) UserEventsPage(ctx context.Context, username string, page int) ([]domain.RawEvent, int, error) {
	events, resp, err := c.gh.Activity.ListEventsPerformedByUser(ctx, username, false, &gh.ListOptions{Page: page, PerPage: perPage})
	return c.convertPage(events, resp, err)
}

// OrgEventsPage returns one page of public events for an organization.
func (c *Client) OrgEventsPage(ctx context.Context, org string, page int) ([]domain.RawEvent, int, error) {
	events, resp, err := c.gh.Activity.ListEventsForOrganization(ctx, org, &gh.ListOptions{Page: page, PerPage: perPage})
	return c.convertPage(events, resp, err)
}

func (c *Client) convertPage(events []*gh.Event, resp *gh.Response, err error) ([]domain.RawEvent, int, error) {
	if err != nil {
		return nil, 0, translateError(err)
	}

	out := make([]domain.RawEvent, 0, len(events))
	for _, ev := range events {
		raw, ok := convertEvent(ev)
		if !ok {
			c.logger.Warn("skipping malformed event", "id", ev.GetID(), "type", ev.GetType())
			continue
		}
		out = append(out, raw)
	}

	next := 0
	if resp != nil {
		next = resp.NextPage
	}
	return out, next, nil
}

// convertEvent validates an API event and maps it to a RawEvent. Events with
// no type or timestamp are rejected.
func convertEvent(ev *gh.Event) (domain.RawEvent, bool) {
	if ev == nil || ev.Type == nil || ev.CreatedAt == nil {
		return domain.RawEvent{}, false
	}

	raw := domain.RawEvent{
		Type:      ev.GetType(),
		CreatedAt: ev.GetCreatedAt().UTC(),
		Owner:     ev.GetActor().GetLogin(),
		Repo:      ev.GetRepo().GetName(),
	}
	if org := ev.GetOrg().GetLogin(); org != "" {
		raw.Owner = org
	}
	if raw.Type == pushEventType {
		raw.Type = domain.EventTypePush
		raw.CommitCount = commitCount(ev.RawPayload)
	}
	return raw, true
}

type pushPayload struct {
	Commits []json.RawMessage `json:"commits"`
}

// commitCount returns the number of commits in a push payload. A missing,
// empty or unreadable commits list counts as one commit.
func commitCount(payload *json.RawMessage) int {
	if payload == nil {
		return 1
	}
	var p pushPayload
	if err := json.Unmarshal(*payload, &p); err != nil || len(p.Commits) == 0 {
		return 1
	}
	return len(p.Commits)
}

// translateError reports HTTP failures as *domain.StatusError so that
// classification happens in one place. Transport errors pass through.
func translateError(err error) error {
	var rle *gh.RateLimitError
	if errors.As(err, &rle) {
		return &domain.StatusError{StatusCode: statusOf(rle.Response, http.StatusForbidden), Message: rle.Message}
	}
	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return &domain.StatusError{StatusCode: statusOf(abuse.Response, http.StatusForbidden), Message: abuse.Message}
	}
	var er *gh.ErrorResponse
	if errors.As(err, &er) {
		return &domain.StatusError{StatusCode: statusOf(er.Response, http.StatusBadGateway), Message: er.Message}
	}
	return err
}

func statusOf(resp *http.Response, fallback int) int {
	if resp == nil {
		return fallback
	}
	return resp.StatusCode
}
