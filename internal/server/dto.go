package server

import (
	"encoding/json"

	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/lifecycle"
	"github.com/Someesvaar/Freelance-Hub/internal/ranking"
)

// Request payloads

type CreateProjectRequest struct {
	ID             string   `json:"id,omitempty"`
	Title          string   `json:"title" minLength:"1"`
	Description    string   `json:"description,omitempty"`
	Budget         float64  `json:"budget"`
	RequiredSkills []string `json:"required_skills,omitempty"`
}

// UpdateProjectRequest edits an open project. Omitted fields are kept; status is not editable.
type UpdateProjectRequest struct {
	Title          *string   `json:"title,omitempty" minLength:"1"`
	Description    *string   `json:"description,omitempty"`
	Budget         *float64  `json:"budget,omitempty"`
	RequiredSkills *[]string `json:"required_skills,omitempty"`
}

type SubmitBidRequest struct {
	ID           string  `json:"id,omitempty"`
	Amount       float64 `json:"amount"`
	Proposal     string  `json:"proposal,omitempty"`
	TimelineDays *int    `json:"timeline_days,omitempty"`
}

type RankBidsRequest struct {
	ProjectID string `json:"project_id" minLength:"1"`
	Priority  string `json:"priority,omitempty" enum:"balanced,price,time,ratings"`
}

type AcceptBidRequest struct {
	BidID string `json:"bid_id" minLength:"1"`
}

type PostReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

type UpdateProfileRequest struct {
	Skills []string `json:"skills"`
}

type DevLoginRequest struct {
	UserID       string `json:"user_id" minLength:"1"`
	Name         string `json:"name,omitempty"`
	IsFreelancer bool   `json:"is_freelancer"`
}

// Responses

type ProjectResponse domain.Project

type ProjectViewResponse struct {
	Project          ProjectResponse    `json:"project"`
	Bids             []domain.Bid       `json:"bids"`
	Reviews          []domain.Review    `json:"reviews"`
	ViewerRole       string             `json:"viewer_role,omitempty" enum:"owner,assigned_freelancer"`
	AvailableActions []lifecycle.Action `json:"available_actions"`
	CanReview        bool               `json:"can_review"`
}

type RankingResponse struct {
	ProjectID    string             `json:"project_id"`
	PriorityUsed string             `json:"priority_used"`
	Weights      ranking.Weights    `json:"weights_applied"`
	RankedBids   []domain.RankedBid `json:"ranked_bids"`
}

type CanReviewResponse struct {
	ProjectID string `json:"project_id"`
	UserID    string `json:"user_id"`
	CanReview bool   `json:"can_review"`
}

type UserProfileResponse struct {
	domain.User
	Reputation *float64        `json:"reputation,omitempty"`
	Reviews    []domain.Review `json:"reviews"`
}

type EventResponse struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts" format:"date-time"`
	Type       string         `json:"type"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	ActorID    string         `json:"actor_id"`
	Payload    map[string]any `json:"payload"`
}

type paginatedEvents struct {
	Items      []EventResponse `json:"items"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

type DevLoginResponse struct {
	Token string `json:"token"`
}

// Conversion helpers

func projectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse(p)
}

func mapProjects(items []domain.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, projectResponse(p))
	}
	return out
}

func projectViewResponse(v engine.ProjectView) ProjectViewResponse {
	return ProjectViewResponse{
		Project:          projectResponse(v.Project),
		Bids:             nonNilSlice(v.Bids),
		Reviews:          nonNilSlice(v.Reviews),
		ViewerRole:       v.ViewerRole,
		AvailableActions: nonNilSlice(v.AvailableActions),
		CanReview:        v.CanReview,
	}
}

func rankingResponse(r engine.Ranking) RankingResponse {
	return RankingResponse{
		ProjectID:    r.ProjectID,
		PriorityUsed: string(r.Priority),
		Weights:      r.Weights,
		RankedBids:   nonNilSlice(r.Bids),
	}
}

func userProfileResponse(p engine.UserProfile) UserProfileResponse {
	return UserProfileResponse{User: p.User, Reputation: p.Reputation, Reviews: nonNilSlice(p.Reviews)}
}

func eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		TS:         e.TS,
		Type:       e.Type,
		ProjectID:  e.ProjectID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		ActorID:    e.ActorID,
		Payload:    decodeJSONMap(e.Payload),
	}
}

// JSON helpers

func decodeJSONMap(raw string) map[string]any {
	if raw == "" {
		return map[string]any{}
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return map[string]any{}
	}
	return obj
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
