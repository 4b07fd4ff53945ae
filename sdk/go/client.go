package freelancehubsdk

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
)

// Client is a minimal Freelance Hub HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults. baseURL includes the API base path, e.g. http://host:8080/api.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// WithToken returns a copy of c authenticating with a bearer token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.BearerToken = token
	cp.APIKey = ""
	return &cp
}

// Project represents the API project model.
type Project struct {
	ID                   string   `json:"id"`
	ClientID             string   `json:"client_id"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Budget               float64  `json:"budget"`
	RequiredSkills       []string `json:"required_skills"`
	Status               string   `json:"status"`
	AssignedFreelancerID *string  `json:"assigned_freelancer_id"`
	AcceptedBidID        *string  `json:"accepted_bid_id"`
	Version              int64    `json:"version"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

// Bid is one ledger entry.
type Bid struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	FreelancerID string  `json:"freelancer_id"`
	Amount       float64 `json:"amount"`
	Proposal     string  `json:"proposal"`
	TimelineDays *int    `json:"timeline_days"`
	SubmittedAt  string  `json:"submitted_at"`
}

// Review is a rating left by one party of a completed project.
type Review struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	ReviewerID string `json:"reviewer_id"`
	RevieweeID string `json:"reviewee_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	CreatedAt  string `json:"created_at"`
}

// ProjectView is a project with its bids, reviews and the caller's next actions.
type ProjectView struct {
	Project          Project  `json:"project"`
	Bids             []Bid    `json:"bids"`
	Reviews          []Review `json:"reviews"`
	ViewerRole       string   `json:"viewer_role"`
	AvailableActions []string `json:"available_actions"`
	CanReview        bool     `json:"can_review"`
}

// Weights are the normalized ranking weights.
type Weights struct {
	Price      float64 `json:"price"`
	Time       float64 `json:"time"`
	Reputation float64 `json:"reputation"`
	Skills     float64 `json:"skills"`
}

// RankedBid is a bid with its scores.
type RankedBid struct {
	Rank            int      `json:"rank"`
	BidID           string   `json:"bid_id"`
	FreelancerID    string   `json:"freelancer_id"`
	FreelancerName  string   `json:"freelancer_name"`
	Amount          float64  `json:"bid_amount"`
	TimelineDays    *int     `json:"timeline_days"`
	Proposal        string   `json:"proposal"`
	SubmittedAt     string   `json:"submitted_at"`
	Score           float64  `json:"score"`
	PriceScore      float64  `json:"price_score"`
	TimeScore       float64  `json:"time_score"`
	ReputationScore float64  `json:"reputation_score"`
	SkillMatch      float64  `json:"skill_match"`
	Reputation      *float64 `json:"reputation"`
}

// Ranking is the result of rank_bids.
type Ranking struct {
	ProjectID    string      `json:"project_id"`
	PriorityUsed string      `json:"priority_used"`
	Weights      Weights     `json:"weights_applied"`
	RankedBids   []RankedBid `json:"ranked_bids"`
}

// UserProfile is a public user profile.
type UserProfile struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"display_name"`
	IsFreelancer      bool     `json:"is_freelancer"`
	Skills            []string `json:"skills"`
	AvgRating         float64  `json:"avg_rating"`
	ReviewCount       int      `json:"review_count"`
	ExternalRating    *float64 `json:"external_rating"`
	ProjectsAccepted  int      `json:"projects_accepted"`
	ProjectsCompleted int      `json:"projects_completed"`
	Reputation        *float64 `json:"reputation"`
	Reviews           []Review `json:"reviews"`
}

// Event represents an audit log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id"`
	EntityID   string         `json:"entity_id"`
	EntityKind string         `json:"entity_kind"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

// PaginatedEvents wraps list responses with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	Body       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: status=%d code=%s message=%s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// NewProject describes a project to post.
type NewProject struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Budget         float64  `json:"budget"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

// ProjectChanges lists the fields to edit on an open project. Nil fields are kept.
type ProjectChanges struct {
	Title          *string   `json:"title,omitempty"`
	Description    *string   `json:"description,omitempty"`
	Budget         *float64  `json:"budget,omitempty"`
	RequiredSkills *[]string `json:"required_skills,omitempty"`
}

// NewBid describes a bid to submit.
type NewBid struct {
	Amount       float64 `json:"amount"`
	Proposal     string  `json:"proposal,omitempty"`
	TimelineDays *int    `json:"timeline_days,omitempty"`
}

// Health pings the API.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "health", nil, nil)
}

// DevLogin mints a development token. The server must have dev login enabled.
func (c *Client) DevLogin(ctx context.Context, userID, name string, isFreelancer bool) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	err := c.do(ctx, http.MethodPost, "auth/dev/login", map[string]any{
		"user_id":       userID,
		"name":          name,
		"is_freelancer": isFreelancer,
	}, &resp)
	return resp.Token, err
}

// CreateProject posts a project as the authenticated client.
func (c *Client) CreateProject(ctx context.Context, p NewProject) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodPost, "projects", p, &resp)
	return resp, err
}

// ListProjects lists projects, optionally filtered by status and skill.
func (c *Client) ListProjects(ctx context.Context, status, skill string) ([]Project, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	if skill != "" {
		q.Set("skill", skill)
	}
	endpoint := "projects"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp []Project
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetProject fetches a project view.
func (c *Client) GetProject(ctx context.Context, projectID string) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodGet, c.projectPath(projectID, ""), nil, &resp)
	return resp, err
}

// UpdateProject edits an open project as its owner.
func (c *Client) UpdateProject(ctx context.Context, projectID string, ch ProjectChanges) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodPut, c.projectPath(projectID, ""), ch, &resp)
	return resp, err
}

// SubmitBid bids on a project as the authenticated freelancer.
func (c *Client) SubmitBid(ctx context.Context, projectID string, b NewBid) (Bid, error) {
	var resp Bid
	err := c.do(ctx, http.MethodPost, c.projectPath(projectID, "bid"), b, &resp)
	return resp, err
}

// RankBids ranks a project's bids under priority (balanced when empty).
func (c *Client) RankBids(ctx context.Context, projectID, priority string) (Ranking, error) {
	body := map[string]any{"project_id": projectID}
	if priority != "" {
		body["priority"] = priority
	}
	var resp Ranking
	err := c.do(ctx, http.MethodPost, "rank_bids", body, &resp)
	return resp, err
}

// AcceptBid accepts a bid as the project owner.
func (c *Client) AcceptBid(ctx context.Context, projectID, bidID string) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodPost, c.projectPath(projectID, "accept_bid"), map[string]any{"bid_id": bidID}, &resp)
	return resp, err
}

// CompleteWork submits work as the assigned freelancer.
func (c *Client) CompleteWork(ctx context.Context, projectID string) (ProjectView, error) {
	return c.transition(ctx, projectID, "complete")
}

// RequestRevision sends work back as the project owner.
func (c *Client) RequestRevision(ctx context.Context, projectID string) (ProjectView, error) {
	return c.transition(ctx, projectID, "request_revision")
}

// AcceptWork closes the engagement as the project owner.
func (c *Client) AcceptWork(ctx context.Context, projectID string) (ProjectView, error) {
	return c.transition(ctx, projectID, "accept")
}

func (c *Client) transition(ctx context.Context, projectID, action string) (ProjectView, error) {
	var resp ProjectView
	err := c.do(ctx, http.MethodPost, c.projectPath(projectID, action), nil, &resp)
	return resp, err
}

// CanReview reports whether the caller may review the project counterpart.
func (c *Client) CanReview(ctx context.Context, projectID string) (bool, error) {
	var resp struct {
		CanReview bool `json:"can_review"`
	}
	err := c.do(ctx, http.MethodGet, c.projectPath(projectID, "can_review"), nil, &resp)
	return resp.CanReview, err
}

// PostReview reviews the counterpart of a completed project.
func (c *Client) PostReview(ctx context.Context, projectID string, rating int, comment string) (Review, error) {
	var resp Review
	err := c.do(ctx, http.MethodPost, c.projectPath(projectID, "review"), map[string]any{
		"rating":  rating,
		"comment": comment,
	}, &resp)
	return resp, err
}

// Events returns the newest audit events of a project.
func (c *Client) Events(ctx context.Context, projectID string, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, projectID, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated audit log listing.
func (c *Client) EventsPage(ctx context.Context, projectID string, limit int, cursor string) (PaginatedEvents, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	endpoint := c.projectPath(projectID, "events")
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// GetUser returns a public profile.
func (c *Client) GetUser(ctx context.Context, userID string) (UserProfile, error) {
	var resp UserProfile
	err := c.do(ctx, http.MethodGet, "user/"+url.PathEscape(userID), nil, &resp)
	return resp, err
}

// Profile returns the caller's profile.
func (c *Client) Profile(ctx context.Context) (UserProfile, error) {
	var resp UserProfile
	err := c.do(ctx, http.MethodGet, "user/profile", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, b)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: string(body)}
	var env struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

func (c *Client) projectPath(projectID, p string) string {
	endpoint := "project/" + url.PathEscape(projectID)
	if p != "" {
		endpoint += "/" + strings.TrimLeft(p, "/")
	}
	return endpoint
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
