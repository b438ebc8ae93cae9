package dto

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	ProjectName string `json:"project_name" binding:"required,max=200"`
	Description string `json:"description"`
}

// CreateIterationRequest 创建迭代请求
type CreateIterationRequest struct {
	IterationName string `json:"iteration_name" binding:"required,max=200"`
	ProjectID     uint   `json:"project_id" binding:"required"`
	Description   string `json:"description"`
}

// CreateRequirementRequest 创建版本需求请求
type CreateRequirementRequest struct {
	RequirementName string `json:"requirement_name" binding:"required,max=200"`
	ProjectID       uint   `json:"project_id" binding:"required"`
	IterationID     *uint  `json:"iteration_id"`
	Description     string `json:"description"`
}
