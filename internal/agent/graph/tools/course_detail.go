package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/it-worker-club/study-agent/internal/agent/model"
)

type GetCourseDetailsInput struct {
	CourseID string `json:"course_id,omitempty"`
	URL      string `json:"url,omitempty"`
}

type GetCourseDetailsOutput struct {
	ID       string           `json:"id"`
	Category string           `json:"category"`
	Course   model.CourseInfo `json:"course"`
	Syllabus []string         `json:"syllabus"`
}

func createGetCourseDetailsTool(catalog []CatalogEntry) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolGetCourseDetails,
			Desc: "Get the syllabus and details of a course. Identify the course by the id or the URL returned from search_course.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"course_id": {
					Type: "string",
					Desc: "Catalog id such as course-001.",
				},
				"url": {
					Type: "string",
					Desc: "Course URL from search_course results.",
				},
			}),
		},
		func(ctx context.Context, in *GetCourseDetailsInput) (*GetCourseDetailsOutput, error) {
			id, url := strings.TrimSpace(in.CourseID), strings.TrimSpace(in.URL)
			if id == "" && url == "" {
				return nil, fmt.Errorf("course_id or url is required")
			}
			for _, entry := range catalog {
				if (id != "" && entry.ID == id) || (url != "" && entry.Course.URL == url) {
					return &GetCourseDetailsOutput{
						ID:       entry.ID,
						Category: entry.Category,
						Course:   entry.Course,
						Syllabus: append([]string(nil), entry.Syllabus...),
					}, nil
				}
			}
			return nil, fmt.Errorf("course not found: %s%s", id, url)
		},
	)
}
