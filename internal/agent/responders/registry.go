package responders

import (
	"github.com/it-worker-club/study-agent/internal/agent/graph/conversations"
	"github.com/it-worker-club/study-agent/internal/agent/graph/tools"
	"github.com/it-worker-club/study-agent/internal/agent/model"
)

// Options configure the responder set. Zero values select the rule-based
// responders over the mock catalog.
type Options struct {
	ChatModels *ChatModels
	Tools      *tools.CourseTools
	Classifier FeedbackClassifier
	Messages   *conversations.MessagesManager
	MaxResults int
}

// NewRegistry builds one responder per responder step.
func NewRegistry(opts Options) map[model.StepID]model.Responder {
	if opts.Tools == nil {
		opts.Tools = tools.NewCourseTools(nil)
	}
	if opts.Classifier == nil {
		opts.Classifier = NewKeywordClassifier(conversations.DefaultFeedbackKeywords())
	}
	if opts.Messages == nil {
		opts.Messages = conversations.NewMessagesManager(model.ConversationConfig{})
	}

	coordinator := NewCoordinator(nil, "", opts.Messages)
	planner := NewLearningPlanner(nil, "", opts.Messages)
	if cms := opts.ChatModels; cms != nil {
		coordinator = NewCoordinator(cms.Coordinator, cms.CoordinatorModelName, opts.Messages)
		planner = NewLearningPlanner(cms.Planner, cms.PlannerModelName, opts.Messages)
	}

	return map[model.StepID]model.Responder{
		model.StepCoordinator:     coordinator,
		model.StepCourseAdvisor:   NewCourseAdvisor(opts.Tools.Search, opts.MaxResults),
		model.StepLearningPlanner: planner,
		model.StepHumanInput:      NewHumanInput(opts.Classifier),
	}
}
