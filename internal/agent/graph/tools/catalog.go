package tools

import (
	"github.com/it-worker-club/study-agent/internal/agent/model"
)

// CatalogEntry is a course plus the keywords it is indexed under.
type CatalogEntry struct {
	ID       string
	Category string
	Keywords []string
	Course   model.CourseInfo
	Syllabus []string
}

// MockCatalog is the in-process course catalog searched by search_course.
var MockCatalog = []CatalogEntry{
	{
		ID:       "course-001",
		Category: "programming",
		Keywords: []string{"python", "编程入门", "programming"},
		Course: model.CourseInfo{
			Title:       "Python 编程入门",
			URL:         "https://learn.example.com/courses/python-basics",
			Description: "从变量、控制流到函数与模块，零基础掌握 Python 语法。",
			Provider:    "Example Academy",
			Difficulty:  "beginner",
			Duration:    "4周",
			Rating:      4.8,
			Source:      "catalog",
		},
		Syllabus: []string{"环境搭建", "基础语法", "函数与模块", "文件与异常"},
	},
	{
		ID:       "course-002",
		Category: "data",
		Keywords: []string{"python", "数据分析", "pandas", "data analysis"},
		Course: model.CourseInfo{
			Title:       "Python 数据分析实战",
			URL:         "https://learn.example.com/courses/python-data-analysis",
			Description: "使用 NumPy 与 pandas 完成数据清洗、聚合与可视化。",
			Provider:    "Example Academy",
			Difficulty:  "intermediate",
			Duration:    "6周",
			Rating:      4.7,
			Source:      "catalog",
		},
		Syllabus: []string{"NumPy 基础", "pandas 数据处理", "可视化", "项目实战"},
	},
	{
		ID:       "course-003",
		Category: "ai",
		Keywords: []string{"python", "机器学习", "machine learning", "ai", "人工智能"},
		Course: model.CourseInfo{
			Title:       "机器学习基础",
			URL:         "https://learn.example.com/courses/ml-foundations",
			Description: "监督学习、无监督学习与模型评估，配套 scikit-learn 练习。",
			Provider:    "Open University",
			Difficulty:  "intermediate",
			Duration:    "8周",
			Rating:      4.6,
			Source:      "catalog",
		},
		Syllabus: []string{"线性模型", "树模型", "聚类", "模型评估"},
	},
	{
		ID:       "course-004",
		Category: "programming",
		Keywords: []string{"go", "golang", "后端", "backend"},
		Course: model.CourseInfo{
			Title:       "Go 语言后端开发",
			URL:         "https://learn.example.com/courses/go-backend",
			Description: "用 Go 构建 HTTP 服务、并发任务与数据库访问层。",
			Provider:    "Example Academy",
			Difficulty:  "intermediate",
			Duration:    "6周",
			Rating:      4.7,
			Source:      "catalog",
		},
		Syllabus: []string{"语法与工具链", "并发模型", "HTTP 服务", "测试与部署"},
	},
	{
		ID:       "course-005",
		Category: "web",
		Keywords: []string{"前端", "javascript", "react", "frontend", "web"},
		Course: model.CourseInfo{
			Title:       "现代前端开发",
			URL:         "https://learn.example.com/courses/modern-frontend",
			Description: "JavaScript、React 与工程化工具链的系统入门。",
			Provider:    "Web School",
			Difficulty:  "beginner",
			Duration:    "8周",
			Rating:      4.5,
			Source:      "catalog",
		},
		Syllabus: []string{"JavaScript 基础", "React 组件", "状态管理", "构建与部署"},
	},
	{
		ID:       "course-006",
		Category: "cs",
		Keywords: []string{"算法", "数据结构", "algorithm", "data structure"},
		Course: model.CourseInfo{
			Title:       "数据结构与算法",
			URL:         "https://learn.example.com/courses/dsa",
			Description: "数组、链表、树、图与常见算法范式，面向面试与工程实践。",
			Provider:    "Open University",
			Difficulty:  "intermediate",
			Duration:    "10周",
			Rating:      4.9,
			Source:      "catalog",
		},
		Syllabus: []string{"线性结构", "树与堆", "图算法", "动态规划"},
	},
	{
		ID:       "course-007",
		Category: "ai",
		Keywords: []string{"深度学习", "deep learning", "机器学习", "pytorch", "ai"},
		Course: model.CourseInfo{
			Title:       "深度学习进阶",
			URL:         "https://learn.example.com/courses/deep-learning",
			Description: "神经网络、卷积与序列模型，使用 PyTorch 完成项目。",
			Provider:    "Open University",
			Difficulty:  "advanced",
			Duration:    "12周",
			Rating:      4.8,
			Source:      "catalog",
		},
		Syllabus: []string{"神经网络基础", "CNN", "RNN 与 Transformer", "项目实战"},
	},
	{
		ID:       "course-008",
		Category: "data",
		Keywords: []string{"sql", "数据库", "database", "数据分析"},
		Course: model.CourseInfo{
			Title:       "SQL 与数据库基础",
			URL:         "https://learn.example.com/courses/sql-basics",
			Description: "关系模型、查询优化与事务，配合真实数据集练习。",
			Provider:    "Web School",
			Difficulty:  "beginner",
			Duration:    "4周",
			Rating:      4.6,
			Source:      "catalog",
		},
		Syllabus: []string{"关系模型", "查询语句", "索引与优化", "事务"},
	},
}
