package parsers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

func TestParseDecision(t *testing.T) {
	content := "好的，这是我的决策：\n```json\n" +
		`{"next_agent": "course_advisor", "current_task": "推荐 Python 课程", "requires_human_input": false, "response": "好的"}` +
		"\n```"

	d, err := ParseDecision(content)
	require.NoError(t, err)
	assert.Equal(t, model.StepCourseAdvisor, d.NextStep)
	assert.Equal(t, "推荐 Python 课程", d.CurrentTask)
	assert.False(t, d.RequiresHumanInput)
	assert.Equal(t, "好的", d.Response)
}

func TestParseDecisionInvalidAgentAsksHuman(t *testing.T) {
	d, err := ParseDecision(`{"next_agent": "researcher", "current_task": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, model.StepHumanInput, d.NextStep)
	assert.True(t, d.RequiresHumanInput)

	d, err = ParseDecision(`{"next_agent": "coordinator", "current_task": "x"}`)
	require.NoError(t, err)
	assert.Equal(t, model.StepHumanInput, d.NextStep)

	d, err = ParseDecision(`{"next_agent": "human_input", "current_task": "x"}`)
	require.NoError(t, err)
	assert.True(t, d.RequiresHumanInput)
}

func TestParseDecisionEnd(t *testing.T) {
	d, err := ParseDecision(`{"next_agent": "end", "current_task": "结束", "response": "再见"}`)
	require.NoError(t, err)
	assert.Equal(t, model.StepTerminate, d.NextStep)
}

func TestParseDecisionErrors(t *testing.T) {
	for _, in := range []string{
		"no json here",
		"{not json}",
		`{"current_task": "x"}`,
		`{"next_agent": "course_advisor"}`,
		"} backwards {",
		string([]byte{0xff, 0xfe}),
	} {
		_, err := ParseDecision(in)
		assert.Error(t, err, in)
	}
}

func TestFallbackDecision(t *testing.T) {
	d := FallbackDecision()
	assert.Equal(t, model.StepHumanInput, d.NextStep)
	assert.True(t, d.RequiresHumanInput)
	assert.Equal(t, "需要用户澄清", d.CurrentTask)
}

func TestParsePlan(t *testing.T) {
	p, err := ParsePlan(`计划如下 {"goal": "掌握 Python", "milestones": [{"title": "基础"}, {"title": " "}, {"title": "项目", "estimated_duration": "2周"}], "estimated_duration": "2个月", "summary": "s"}`)
	require.NoError(t, err)
	assert.Equal(t, "掌握 Python", p.Goal)
	require.Len(t, p.Milestones, 2)
	assert.Equal(t, "项目", p.Milestones[1].Title)
	assert.Equal(t, "2个月", p.EstimatedDuration)

	_, err = ParsePlan(`{"goal": "", "milestones": [{"title": "a"}]}`)
	assert.Error(t, err)
	_, err = ParsePlan(`{"goal": "g", "milestones": []}`)
	assert.Error(t, err)
}

func TestSafeSnippetKeepsRunes(t *testing.T) {
	long := strings.Repeat("课", 100)
	got := safeSnippet(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), maxErrSnippet+3)
}
