package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const (
	ToolSearchCourse     = "search_course"
	ToolGetCourseDetails = "get_course_details"
)

// CourseTools bundles the catalog tools used by the course advisor.
type CourseTools struct {
	Search  tool.InvokableTool
	Details tool.InvokableTool
}

// NewCourseTools builds the tools over the given catalog; nil selects MockCatalog.
func NewCourseTools(catalog []CatalogEntry) *CourseTools {
	if catalog == nil {
		catalog = MockCatalog
	}
	return &CourseTools{
		Search:  createSearchCourseTool(catalog),
		Details: createGetCourseDetailsTool(catalog),
	}
}

// All returns the tools as base tools for binding to a chat model.
func (ct *CourseTools) All() []tool.BaseTool {
	return []tool.BaseTool{ct.Search, ct.Details}
}

// GetToolInfos collects the tool schemas.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Invoke runs a tool outside a ToolsNode while still emitting tool callbacks.
func Invoke(ctx context.Context, t tool.InvokableTool, argumentsInJSON string) (string, error) {
	info, err := t.Info(ctx)
	if err != nil {
		return "", fmt.Errorf("tool info: %w", err)
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      info.Name,
		Type:      "CourseCatalog",
		Component: components.ComponentOfTool,
	})
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: argumentsInJSON})

	out, err := t.InvokableRun(ctx, argumentsInJSON)
	if err != nil {
		callbacks.OnError(ctx, err)
		return "", fmt.Errorf("run tool %s: %w", info.Name, err)
	}

	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})
	return out, nil
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
