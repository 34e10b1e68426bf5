package consistency

import (
	"fmt"
	"strings"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

type ViolationKind string

const (
	// DanglingPlanReference: a recommended course is missing from the plan's candidate refs.
	DanglingPlanReference ViolationKind = "dangling_plan_reference"
	// HumanInputOnComplete: the gate is raised on a completed conversation.
	HumanInputOnComplete ViolationKind = "human_input_on_complete"
	// NextStepOnComplete: a completed conversation still names a non-terminal next step.
	NextStepOnComplete ViolationKind = "next_step_on_complete"
)

type Violation struct {
	Kind   ViolationKind
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Kind, v.Detail)
}

// Report lists every violation found by Check.
type Report struct {
	Violations []Violation
}

func (r Report) OK() bool {
	return len(r.Violations) == 0
}

// Description joins all violations into one line.
func (r Report) Description() string {
	parts := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// Check inspects the cross-field invariants of the state without mutating it.
func Check(state *model.ConversationState) Report {
	var r Report

	if plan := state.LearningPlan; plan != nil {
		refs := make(map[string]struct{}, len(plan.CandidateRefs))
		for _, ref := range plan.CandidateRefs {
			refs[ref] = struct{}{}
		}
		for _, c := range plan.RecommendedCourses {
			if _, ok := refs[c.Ref()]; !ok {
				r.Violations = append(r.Violations, Violation{
					Kind:   DanglingPlanReference,
					Detail: fmt.Sprintf("recommended course %q is not among the plan's candidates", c.Ref()),
				})
			}
		}
	}

	if state.IsComplete && state.RequiresHumanInput {
		r.Violations = append(r.Violations, Violation{
			Kind:   HumanInputOnComplete,
			Detail: "conversation is complete but still requires human input",
		})
	}

	if state.IsComplete && state.NextStep != "" && state.NextStep != model.StepTerminate {
		r.Violations = append(r.Violations, Violation{
			Kind:   NextStepOnComplete,
			Detail: fmt.Sprintf("conversation is complete but next step is %s", state.NextStep),
		})
	}

	return r
}

// CheckConsistency reports whether the state is consistent and, if not, a
// description of what is wrong.
func CheckConsistency(state *model.ConversationState) (bool, string) {
	r := Check(state)
	return r.OK(), r.Description()
}

// Remediate repairs the violations in the report and returns how many fields it changed.
func Remediate(state *model.ConversationState, r Report) int {
	fixed := 0
	for _, v := range r.Violations {
		switch v.Kind {
		case DanglingPlanReference:
			if state.LearningPlan == nil {
				continue
			}
			fixed += dropDanglingCourses(state.LearningPlan)
		case HumanInputOnComplete:
			if state.RequiresHumanInput {
				state.ClearHumanInput()
				fixed++
			}
		case NextStepOnComplete:
			if state.NextStep != model.StepTerminate {
				state.NextStep = model.StepTerminate
				fixed++
			}
		}
	}
	return fixed
}

func dropDanglingCourses(plan *model.LearningPlan) int {
	refs := make(map[string]struct{}, len(plan.CandidateRefs))
	for _, ref := range plan.CandidateRefs {
		refs[ref] = struct{}{}
	}
	kept := plan.RecommendedCourses[:0]
	dropped := 0
	for _, c := range plan.RecommendedCourses {
		if _, ok := refs[c.Ref()]; ok {
			kept = append(kept, c)
			continue
		}
		dropped++
	}
	plan.RecommendedCourses = kept
	return dropped
}
