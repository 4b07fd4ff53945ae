package domain

// Status is a project's position in the engagement lifecycle.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInProgress    Status = "in_progress"
	StatusPendingReview Status = "pending_review"
	StatusNeedsRevision Status = "needs_revision"
	StatusCompleted     Status = "completed"
)

// Priority selects the weighting strategy used when ranking bids.
type Priority string

const (
	PriorityBalanced Priority = "balanced"
	PriorityPrice    Priority = "price"
	PriorityTime     Priority = "time"
	PriorityRatings  Priority = "ratings"
)

// Priorities lists every supported ranking priority.
var Priorities = []Priority{PriorityBalanced, PriorityPrice, PriorityTime, PriorityRatings}

type Project struct {
	ID                   string   `json:"id"`
	ClientID             string   `json:"client_id"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Budget               float64  `json:"budget"`
	RequiredSkills       []string `json:"required_skills,omitempty"`
	Status               Status   `json:"status" enum:"open,in_progress,pending_review,needs_revision,completed"`
	AssignedFreelancerID *string  `json:"assigned_freelancer_id,omitempty"`
	AcceptedBidID        *string  `json:"accepted_bid_id,omitempty"`
	Version              int64    `json:"version"`
	CreatedAt            string   `json:"created_at" format:"date-time"`
	UpdatedAt            string   `json:"updated_at" format:"date-time"`
}

type Bid struct {
	ID           string  `json:"id"`
	ProjectID    string  `json:"project_id"`
	FreelancerID string  `json:"freelancer_id"`
	Amount       float64 `json:"amount"`
	Proposal     string  `json:"proposal"`
	TimelineDays *int    `json:"timeline_days,omitempty"`
	SubmittedAt  string  `json:"submitted_at" format:"date-time"`
	// Seq is the insertion position within the ledger; it breaks submittedAt ties.
	Seq int64 `json:"-"`
}

// RankedBid is a derived, never persisted view of a Bid under one priority.
type RankedBid struct {
	Rank            int      `json:"rank"`
	BidID           string   `json:"bid_id"`
	FreelancerID    string   `json:"freelancer_id"`
	FreelancerName  string   `json:"freelancer_name"`
	Amount          float64  `json:"bid_amount"`
	TimelineDays    *int     `json:"timeline_days,omitempty"`
	Proposal        string   `json:"proposal"`
	SubmittedAt     string   `json:"submitted_at" format:"date-time"`
	Score           float64  `json:"score"`
	PriceScore      float64  `json:"price_score"`
	TimeScore       float64  `json:"time_score"`
	ReputationScore float64  `json:"reputation_score"`
	SkillMatch      float64  `json:"skill_match"`
	Reputation      *float64 `json:"reputation,omitempty"`
}

type Review struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	ReviewerID string `json:"reviewer_id"`
	RevieweeID string `json:"reviewee_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment,omitempty"`
	CreatedAt  string `json:"created_at" format:"date-time"`
}

type User struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"display_name"`
	IsFreelancer      bool     `json:"is_freelancer"`
	Skills            []string `json:"skills,omitempty"`
	AvgRating         float64  `json:"avg_rating"`
	ReviewCount       int      `json:"review_count"`
	ExternalRating    *float64 `json:"external_rating,omitempty"`
	ProjectsAccepted  int      `json:"projects_accepted"`
	ProjectsCompleted int      `json:"projects_completed"`
	CreatedAt         string   `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	ProjectID  string `json:"project_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
