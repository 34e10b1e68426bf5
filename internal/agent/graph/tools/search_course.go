package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

// ===================================
// Search Course Tool
// ===================================

type SearchCourseInput struct {
	Query      string   `json:"query"`
	Difficulty string   `json:"difficulty,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
	Exclude    []string `json:"exclude,omitempty"`
}

type SearchCourseOutput struct {
	Courses []model.CourseInfo `json:"courses"`
	Total   int                `json:"total"`
}

func createSearchCourseTool(catalog []CatalogEntry) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolSearchCourse,
			Desc: "Search the course catalog. Supports Chinese/English keywords such as Python, 数据分析, 机器学习, Go, 前端, 算法, SQL. Returns course title, URL, difficulty, duration and rating.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Learning topic or request in Chinese or English, e.g. 推荐Python课程, machine learning.",
					Required: true,
				},
				"difficulty": {
					Type: "string",
					Desc: "Preferred difficulty: beginner, intermediate or advanced. Matching courses are ranked first.",
				},
				"max_results": {
					Type: "number",
					Desc: "Maximum number of courses to return (default: 5, max: 10)",
				},
				"exclude": {
					Type:     "array",
					Desc:     "Course URLs already shown to the user.",
					ElemInfo: &schema.ParameterInfo{Type: "string"},
				},
			}),
		},
		func(ctx context.Context, in *SearchCourseInput) (*SearchCourseOutput, error) {
			query := strings.ToLower(strings.TrimSpace(in.Query))
			if query == "" {
				return nil, fmt.Errorf("query is required")
			}
			max := clampInt(in.MaxResults, 1, 10)
			if in.MaxResults == 0 {
				max = 5
			}

			excluded := make(map[string]struct{}, len(in.Exclude))
			for _, ref := range in.Exclude {
				excluded[ref] = struct{}{}
			}

			var matched []model.CourseInfo
			for _, entry := range catalog {
				if _, skip := excluded[entry.Course.Ref()]; skip {
					continue
				}
				if entryMatches(entry, query) {
					matched = append(matched, entry.Course)
				}
			}

			difficulty := strings.ToLower(in.Difficulty)
			sort.SliceStable(matched, func(i, j int) bool {
				di, dj := matched[i].Difficulty == difficulty, matched[j].Difficulty == difficulty
				if di != dj {
					return di
				}
				return matched[i].Rating > matched[j].Rating
			})

			if len(matched) > max {
				matched = matched[:max]
			}
			if matched == nil {
				matched = []model.CourseInfo{}
			}

			return &SearchCourseOutput{Courses: matched, Total: len(matched)}, nil
		},
	)
}

func entryMatches(entry CatalogEntry, query string) bool {
	for _, kw := range entry.Keywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(entry.Course.Title), query) ||
		strings.Contains(strings.ToLower(entry.Course.Description), query)
}
