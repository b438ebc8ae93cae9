package dto

import "testhub/internal/casegen"

// GenerateRequest AI生成用例请求，multipart表单
type GenerateRequest struct {
	ProjectID       uint   `form:"project_id" binding:"required"`
	IterationID     uint   `form:"iteration_id"`
	RequirementID   uint   `form:"requirement_id"`
	ProjectName     string `form:"project_name"`
	IterationName   string `form:"iteration_name"`
	RequirementName string `form:"requirement_name" binding:"required"`
	Description     string `form:"description"`
	TemplateKey     string `form:"template_key"`
	SuiteID         uint   `form:"suite_id" binding:"required"`
	SuiteName       string `form:"suite_name"`
}

// GenerateResponse AI生成用例响应，用例尚未入库
type GenerateResponse struct {
	Cases []casegen.CaseRecord `json:"cases"`
	Total int                  `json:"total"`
}

// SaveCasesRequest 批量保存生成用例请求
type SaveCasesRequest struct {
	SuiteID         uint                 `json:"suite_id" binding:"required"`
	ProjectID       uint                 `json:"project_id" binding:"required"`
	IterationID     uint                 `json:"iteration_id"`
	RequirementID   uint                 `json:"requirement_id"`
	ProjectName     string               `json:"project_name"`
	IterationName   string               `json:"iteration_name"`
	RequirementName string               `json:"requirement_name"`
	SuiteName       string               `json:"suite_name"`
	Cases           []casegen.CaseRecord `json:"cases" binding:"required,min=1"`
}

// SaveCasesResponse 批量保存结果
type SaveCasesResponse struct {
	SavedCount   int  `json:"saved_count"`
	SuiteID      uint `json:"suite_id"`
	SuiteCreated bool `json:"suite_created"`
}
