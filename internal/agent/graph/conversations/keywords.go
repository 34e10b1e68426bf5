package conversations

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// KeywordSet holds the approval and revision keywords for one feedback context.
type KeywordSet struct {
	Approve []string `yaml:"approve"`
	Revise  []string `yaml:"revise"`
}

// FeedbackKeywords are the keyword sets used to classify gate feedback.
type FeedbackKeywords struct {
	Plan    KeywordSet `yaml:"plan"`
	Courses KeywordSet `yaml:"courses"`
}

// DefaultFeedbackKeywords returns the built-in feedback keyword sets.
func DefaultFeedbackKeywords() FeedbackKeywords {
	return FeedbackKeywords{
		Plan: KeywordSet{
			Approve: []string{"同意", "批准", "确认", "好的", "可以", "approve", "yes"},
			Revise:  []string{"重新", "不同", "修改", "调整", "redo", "change"},
		},
		Courses: KeywordSet{
			Approve: []string{"满意", "好的", "可以", "不错", "satisfied", "good"},
			Revise:  []string{"更多", "其他", "别的", "再推荐", "more", "other"},
		},
	}
}

// KeywordFile is the optional YAML document overriding the built-in keyword sets.
//
//	topics:
//	  new_topic: [换个话题, by the way]
//	  return_to_previous: [回到, back to]
//	feedback:
//	  plan: {approve: [同意], revise: [重新]}
//	  courses: {approve: [满意], revise: [更多]}
type KeywordFile struct {
	Topics   *Markers          `yaml:"topics"`
	Feedback *FeedbackKeywords `yaml:"feedback"`
}

// LoadKeywordFile reads and validates a YAML keyword file.
func LoadKeywordFile(path string) (*KeywordFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read keyword file: %w", err)
	}
	return ParseKeywordFile(raw)
}

// ParseKeywordFile decodes a YAML keyword document.
func ParseKeywordFile(raw []byte) (*KeywordFile, error) {
	var kf KeywordFile
	if err := yaml.Unmarshal(raw, &kf); err != nil {
		return nil, fmt.Errorf("parse keyword file: %w", err)
	}
	if kf.Topics != nil {
		if err := kf.Topics.Validate(); err != nil {
			return nil, err
		}
	}
	return &kf, nil
}

// TopicMarkers returns the file's markers or the defaults.
func (kf *KeywordFile) TopicMarkers() Markers {
	if kf == nil || kf.Topics == nil {
		return DefaultMarkers()
	}
	return *kf.Topics
}

// FeedbackKeywords returns the file's feedback sets, falling back per set to the defaults.
func (kf *KeywordFile) FeedbackKeywords() FeedbackKeywords {
	def := DefaultFeedbackKeywords()
	if kf == nil || kf.Feedback == nil {
		return def
	}
	out := *kf.Feedback
	if len(out.Plan.Approve) == 0 && len(out.Plan.Revise) == 0 {
		out.Plan = def.Plan
	}
	if len(out.Courses.Approve) == 0 && len(out.Courses.Revise) == 0 {
		out.Courses = def.Courses
	}
	return out
}
