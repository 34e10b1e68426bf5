package model

import (
	"errors"
	"fmt"
	"time"
)

// CourseInfo is one search result from the course catalog.
type CourseInfo struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Description string  `json:"description"`
	Provider    string  `json:"provider,omitempty"`
	Difficulty  string  `json:"difficulty,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// Ref identifies a course for plan references: its URL, or its title when no URL is known.
func (c CourseInfo) Ref() string {
	if c.URL != "" {
		return c.URL
	}
	return c.Title
}

// CloneCourses copies a course slice. nil stays nil.
func CloneCourses(in []CourseInfo) []CourseInfo {
	if in == nil {
		return nil
	}
	out := make([]CourseInfo, len(in))
	copy(out, in)
	return out
}

// CourseRefs lists the refs of every course in order.
func CourseRefs(in []CourseInfo) []string {
	out := make([]string, 0, len(in))
	for _, c := range in {
		out = append(out, c.Ref())
	}
	return out
}

type PlanStatus string

const (
	PlanDraft     PlanStatus = "draft"
	PlanApproved  PlanStatus = "approved"
	PlanRevising  PlanStatus = "revising"
	PlanCompleted PlanStatus = "completed"
)

var ErrInvalidPlanTransition = errors.New("invalid plan status transition")

type Milestone struct {
	Title             string   `json:"title"`
	Description       string   `json:"description,omitempty"`
	EstimatedDuration string   `json:"estimated_duration,omitempty"`
	Resources         []string `json:"resources,omitempty"`
}

type LearningPlan struct {
	Goal               string       `json:"goal"`
	Milestones         []Milestone  `json:"milestones"`
	RecommendedCourses []CourseInfo `json:"recommended_courses"`
	EstimatedDuration  string       `json:"estimated_duration"`
	CreatedAt          time.Time    `json:"created_at"`
	Status             PlanStatus   `json:"status"`
	// CandidateRefs records the candidate set observed when the plan was last
	// written. Every recommended course must come from it.
	CandidateRefs []string `json:"candidate_refs"`
}

// Approve moves a draft plan to approved.
func (p *LearningPlan) Approve() error {
	return p.transition(PlanApproved)
}

// StartRevision moves a draft plan to revising.
func (p *LearningPlan) StartRevision() error {
	return p.transition(PlanRevising)
}

// Complete moves an approved plan to completed.
func (p *LearningPlan) Complete() error {
	return p.transition(PlanCompleted)
}

func (p *LearningPlan) transition(to PlanStatus) error {
	allowed := map[PlanStatus][]PlanStatus{
		PlanDraft:    {PlanApproved, PlanRevising},
		PlanRevising: {PlanDraft},
		PlanApproved: {PlanCompleted},
	}
	for _, next := range allowed[p.Status] {
		if next == to {
			p.Status = to
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidPlanTransition, p.Status, to)
}

// Clone returns a deep copy; nil stays nil.
func (p *LearningPlan) Clone() *LearningPlan {
	if p == nil {
		return nil
	}
	out := *p
	if p.Milestones != nil {
		out.Milestones = make([]Milestone, len(p.Milestones))
		for i, m := range p.Milestones {
			m.Resources = cloneStrings(m.Resources)
			out.Milestones[i] = m
		}
	}
	out.RecommendedCourses = CloneCourses(p.RecommendedCourses)
	out.CandidateRefs = cloneStrings(p.CandidateRefs)
	return &out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append(make([]string, 0, len(in)), in...)
}
