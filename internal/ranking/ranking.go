// Package ranking scores and orders the bids of a project under a priority.
// Everything here is pure: callers supply a consistent snapshot of bids and
// reputations and get back a fresh ordering.
package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

// DefaultTimelineDays stands in for a bid that declares no delivery estimate.
const DefaultTimelineDays = 30

// DefaultTieFloor is the weight given to sub-scores a priority switches off.
const DefaultTieFloor = 0.01

// Weights blends the sub-scores into a composite score. Skills is opt-in: it is
// not lifted to the tie floor, so it only counts when configured.
type Weights struct {
	Price      float64 `json:"price" yaml:"price"`
	Time       float64 `json:"time" yaml:"time"`
	Reputation float64 `json:"reputation" yaml:"reputation"`
	Skills     float64 `json:"skills" yaml:"skills"`
}

func (w Weights) sum() float64 { return w.Price + w.Time + w.Reputation + w.Skills }

// Policy maps each priority to its raw weights.
type Policy struct {
	Priorities map[domain.Priority]Weights
	TieFloor   float64
}

// DefaultPolicy weights balanced equally and lets each other priority select one sub-score.
func DefaultPolicy() Policy {
	return Policy{
		Priorities: map[domain.Priority]Weights{
			domain.PriorityBalanced: {Price: 1, Time: 1, Reputation: 1},
			domain.PriorityPrice:    {Price: 1},
			domain.PriorityTime:     {Time: 1},
			domain.PriorityRatings:  {Reputation: 1},
		},
		TieFloor: DefaultTieFloor,
	}
}

// WeightsFor returns the normalized weights for priority. Zero weights are lifted
// to the tie floor before normalizing so that switched-off sub-scores still break ties.
func (p Policy) WeightsFor(priority domain.Priority) (Weights, error) {
	raw, ok := p.Priorities[priority]
	if !ok {
		return Weights{}, apperrors.InvalidInput("unknown ranking priority %q", priority).
			WithDetails(map[string]any{"priority": string(priority)})
	}
	if raw.Price < 0 || raw.Time < 0 || raw.Reputation < 0 || raw.Skills < 0 {
		return Weights{}, fmt.Errorf("priority %s has a negative weight", priority)
	}
	floor := func(v float64) float64 {
		if v == 0 {
			return p.TieFloor
		}
		return v
	}
	w := Weights{Price: floor(raw.Price), Time: floor(raw.Time), Reputation: floor(raw.Reputation), Skills: raw.Skills}
	total := w.sum()
	if total <= 0 {
		return Weights{}, fmt.Errorf("priority %s has no positive weight", priority)
	}
	return Weights{Price: w.Price / total, Time: w.Time / total, Reputation: w.Reputation / total, Skills: w.Skills / total}, nil
}

// Candidate is one bid together with what is known about its freelancer.
type Candidate struct {
	Bid            domain.Bid
	FreelancerName string
	// Reputation is the freelancer's rating on a 0..1 scale, nil when unknown.
	Reputation *float64
	// SkillMatch is the overlap of the freelancer's skills with the project's, 0..1.
	SkillMatch float64
}

// Result is an ordered ranking plus the parameters that produced it.
type Result struct {
	Priority domain.Priority    `json:"priority_used"`
	Weights  Weights            `json:"weights_applied"`
	Bids     []domain.RankedBid `json:"ranked_bids"`
}

// Rank scores every candidate and orders them by score, then submission time.
// An empty candidate set yields an empty ranking.
func Rank(candidates []Candidate, priority domain.Priority, policy Policy) (Result, error) {
	w, err := policy.WeightsFor(priority)
	if err != nil {
		return Result{}, err
	}
	res := Result{Priority: priority, Weights: w, Bids: []domain.RankedBid{}}
	if len(candidates) == 0 {
		return res, nil
	}

	prices := make([]float64, len(candidates))
	timelines := make([]float64, len(candidates))
	reps := make([]float64, len(candidates))
	matches := make([]float64, len(candidates))
	for i, c := range candidates {
		prices[i] = c.Bid.Amount
		timelines[i] = DefaultTimelineDays
		if c.Bid.TimelineDays != nil {
			timelines[i] = float64(*c.Bid.TimelineDays)
		}
		if c.Reputation != nil {
			reps[i] = *c.Reputation
		}
		matches[i] = c.SkillMatch
	}
	priceScores := normalize(prices, true)
	timeScores := normalize(timelines, true)
	repScores := normalize(reps, false)

	type scored struct {
		rb  domain.RankedBid
		seq int64
	}
	out := make([]scored, len(candidates))
	for i, c := range candidates {
		score := w.Price*priceScores[i] + w.Time*timeScores[i] + w.Reputation*repScores[i] + w.Skills*matches[i]
		out[i] = scored{
			seq: c.Bid.Seq,
			rb: domain.RankedBid{
				BidID:           c.Bid.ID,
				FreelancerID:    c.Bid.FreelancerID,
				FreelancerName:  c.FreelancerName,
				Amount:          c.Bid.Amount,
				TimelineDays:    c.Bid.TimelineDays,
				Proposal:        c.Bid.Proposal,
				SubmittedAt:     c.Bid.SubmittedAt,
				Score:           round4(score),
				PriceScore:      round4(priceScores[i]),
				TimeScore:       round4(timeScores[i]),
				ReputationScore: round4(repScores[i]),
				SkillMatch:      round4(matches[i]),
				Reputation:      c.Reputation,
			},
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.rb.Score != b.rb.Score {
			return a.rb.Score > b.rb.Score
		}
		// RFC3339 UTC timestamps of equal layout sort lexically.
		if a.rb.SubmittedAt != b.rb.SubmittedAt {
			return a.rb.SubmittedAt < b.rb.SubmittedAt
		}
		if a.seq != b.seq {
			return a.seq < b.seq
		}
		return a.rb.BidID < b.rb.BidID
	})
	res.Bids = make([]domain.RankedBid, len(out))
	for i, s := range out {
		s.rb.Rank = i + 1
		res.Bids[i] = s.rb
	}
	return res, nil
}

// normalize min-max scales values into [0,1]. A set with no spread scores 0.5 throughout.
func normalize(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	for i, v := range values {
		if hi == lo {
			out[i] = 0.5
			continue
		}
		scaled := (v - lo) / (hi - lo)
		if invert {
			scaled = 1 - scaled
		}
		out[i] = scaled
	}
	return out
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

// Reputation derives a 0..1 rating for a freelancer: the mean of received
// reviews when there are any, else the external rating, else nil.
func Reputation(u domain.User) *float64 {
	var r float64
	switch {
	case u.ReviewCount > 0:
		r = u.AvgRating / 5
	case u.ExternalRating != nil:
		r = *u.ExternalRating / 5
	default:
		return nil
	}
	r = math.Max(0, math.Min(1, r))
	return &r
}

// SkillMatch is the Jaccard similarity of two skill lists, compared case-insensitively.
// It is 0 when either list is empty.
func SkillMatch(required, offered []string) float64 {
	want := skillSet(required)
	have := skillSet(offered)
	if len(want) == 0 || len(have) == 0 {
		return 0
	}
	inter := 0
	for s := range want {
		if have[s] {
			inter++
		}
	}
	union := len(want) + len(have) - inter
	return float64(inter) / float64(union)
}

func skillSet(skills []string) map[string]bool {
	out := make(map[string]bool, len(skills))
	for _, s := range skills {
		if v := strings.ToLower(strings.TrimSpace(s)); v != "" {
			out[v] = true
		}
	}
	return out
}
