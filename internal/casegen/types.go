package casegen

// 优先级与状态的合法取值
var (
	ValidPriorities = []string{"P0", "P1", "P2", "P3", "P4"}
	ValidStatuses   = []string{"", "pass", "fail", "blocked", "not_applicable"}
)

// BatchMeta 一次生成批次的关联信息，来自生成请求
type BatchMeta struct {
	ProjectID     uint
	IterationID   uint
	RequirementID uint
}

// CaseRecord 规范化后的测试用例记录，待持久化
type CaseRecord struct {
	CaseNumber      string `json:"case_number"`
	CaseName        string `json:"case_name"`
	CaseDescription string `json:"case_description"`
	Priority        string `json:"priority"`
	Status          string `json:"status"`
	Preconditions   string `json:"preconditions"`
	Steps           string `json:"steps"`
	ExpectedResult  string `json:"expected_result"`
	ActualResult    string `json:"actual_result"`
	TestData        string `json:"test_data"`

	ProjectID            uint  `json:"project_id"`
	IterationID          uint  `json:"iteration_id"`
	VersionRequirementID uint  `json:"version_requirement_id"`
	SuiteID              *uint `json:"suite_id"`
}
