package dto

// CreateCaseRequest 创建测试用例请求
type CreateCaseRequest struct {
	CaseNumber           string `json:"case_number"`
	CaseName             string `json:"case_name" binding:"required,max=200"`
	Description          string `json:"case_description"`
	Priority             string `json:"priority" binding:"omitempty,oneof=P0 P1 P2 P3 P4"`
	Status               string `json:"status" binding:"omitempty,oneof=pass fail blocked not_applicable"`
	Preconditions        string `json:"preconditions"`
	Steps                string `json:"steps"`
	ExpectedResult       string `json:"expected_result"`
	TestData             string `json:"test_data"`
	SuiteID              *uint  `json:"suite_id"`
	ProjectID            uint   `json:"project_id" binding:"required"`
	IterationID          *uint  `json:"iteration_id"`
	VersionRequirementID *uint  `json:"version_requirement_id"`
}

// ListCasesQuery 用例列表查询参数
type ListCasesQuery struct {
	Page     int `form:"page,default=1" binding:"omitempty,min=1"`
	PageSize int `form:"page_size,default=20" binding:"omitempty,min=1,max=500"`
}
