package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func search(t *testing.T, ct *CourseTools, in SearchCourseInput) SearchCourseOutput {
	t.Helper()
	args, err := json.Marshal(in)
	require.NoError(t, err)
	raw, err := Invoke(context.Background(), ct.Search, string(args))
	require.NoError(t, err)

	var out SearchCourseOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

func TestSearchCourseMatchesKeywords(t *testing.T) {
	ct := NewCourseTools(nil)

	out := search(t, ct, SearchCourseInput{Query: "推荐Python课程"})
	require.Equal(t, 3, out.Total)
	assert.Equal(t, "Python 编程入门", out.Courses[0].Title)

	out = search(t, ct, SearchCourseInput{Query: "量子物理"})
	assert.Equal(t, 0, out.Total)
	assert.NotNil(t, out.Courses)
}

func TestSearchCoursePrefersDifficultyAndExcludes(t *testing.T) {
	ct := NewCourseTools(nil)

	out := search(t, ct, SearchCourseInput{Query: "python", Difficulty: "intermediate"})
	require.NotEmpty(t, out.Courses)
	assert.Equal(t, "intermediate", out.Courses[0].Difficulty)

	out = search(t, ct, SearchCourseInput{
		Query:   "python",
		Exclude: []string{"https://learn.example.com/courses/python-basics"},
	})
	for _, c := range out.Courses {
		assert.NotEqual(t, "https://learn.example.com/courses/python-basics", c.URL)
	}

	out = search(t, ct, SearchCourseInput{Query: "python", MaxResults: 1})
	assert.Len(t, out.Courses, 1)
}

func TestSearchCourseRequiresQuery(t *testing.T) {
	ct := NewCourseTools(nil)
	_, err := Invoke(context.Background(), ct.Search, `{"query":"  "}`)
	assert.Error(t, err)
}

func TestGetCourseDetails(t *testing.T) {
	ct := NewCourseTools(nil)

	raw, err := Invoke(context.Background(), ct.Details, `{"course_id":"course-006"}`)
	require.NoError(t, err)
	var out GetCourseDetailsOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, "数据结构与算法", out.Course.Title)
	assert.NotEmpty(t, out.Syllabus)

	_, err = Invoke(context.Background(), ct.Details, `{"course_id":"nope"}`)
	assert.Error(t, err)
}

func TestGetToolInfos(t *testing.T) {
	infos, err := GetToolInfos(context.Background(), NewCourseTools(nil).All())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, ToolSearchCourse, infos[0].Name)
	assert.Equal(t, ToolGetCourseDetails, infos[1].Name)
}
