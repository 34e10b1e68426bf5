package responders

import (
	"context"
	"strings"

	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
)

// FeedbackSubject is what the user is giving feedback on.
type FeedbackSubject string

const (
	SubjectPlan    FeedbackSubject = "plan"
	SubjectCourses FeedbackSubject = "courses"
)

// Verdict is the classified intent of a piece of feedback.
type Verdict string

const (
	VerdictApprove          Verdict = "approve"
	VerdictRequestRevision  Verdict = "requestRevision"
	VerdictSpecificFeedback Verdict = "specificFeedback"
)

// FeedbackClassifier maps gate feedback onto a verdict.
type FeedbackClassifier interface {
	Classify(ctx context.Context, subject FeedbackSubject, text string) Verdict
}

// KeywordClassifier classifies feedback by substring match against keyword sets.
// For a plan approval wins over revision; for courses a request for more wins
// over approval.
type KeywordClassifier struct {
	keywords conversations.FeedbackKeywords
}

func NewKeywordClassifier(kw conversations.FeedbackKeywords) *KeywordClassifier {
	return &KeywordClassifier{keywords: kw}
}

func (c *KeywordClassifier) Classify(_ context.Context, subject FeedbackSubject, text string) Verdict {
	text = strings.ToLower(strings.TrimSpace(text))
	switch subject {
	case SubjectPlan:
		switch {
		case containsAny(text, c.keywords.Plan.Approve):
			return VerdictApprove
		case containsAny(text, c.keywords.Plan.Revise):
			return VerdictRequestRevision
		}
	case SubjectCourses:
		switch {
		case containsAny(text, c.keywords.Courses.Revise):
			return VerdictRequestRevision
		case containsAny(text, c.keywords.Courses.Approve):
			return VerdictApprove
		}
	}
	return VerdictSpecificFeedback
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(text, n) {
			return true
		}
	}
	return false
}
