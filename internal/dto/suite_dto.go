package dto

// CreateSuiteRequest 创建测试套件请求
type CreateSuiteRequest struct {
	SuiteName   string `json:"suite_name" binding:"required,max=200"`
	Description string `json:"description"`
	Type        string `json:"type" binding:"omitempty,oneof=folder suite"`
	ParentID    *uint  `json:"parent_id"`
	ProjectID   uint   `json:"project_id" binding:"required"`
}

// SuiteNode 套件树节点
type SuiteNode struct {
	ID          uint         `json:"id"`
	SuiteName   string       `json:"suite_name"`
	Description string       `json:"description"`
	Type        string       `json:"type"`
	ParentID    *uint        `json:"parent_id"`
	Children    []*SuiteNode `json:"children"`
}
