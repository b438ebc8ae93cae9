package dto

// StartTaskResponse 启动生成任务响应
type StartTaskResponse struct {
	TaskID string `json:"task_id"`
	Status string `json:"status"`
}

// TaskStatusResponse 任务状态响应
type TaskStatusResponse struct {
	TaskID     string `json:"task_id"`
	Status     string `json:"status"`
	Finished   bool   `json:"finished"`
	SavedCount int    `json:"saved_count"`
	SuiteID    *uint  `json:"suite_id,omitempty"`
	Message    string `json:"message,omitempty"`
}

// TaskInfo 任务信息
type TaskInfo struct {
	TaskID       string                 `json:"task_id"`
	Status       string                 `json:"status"`
	Params       map[string]interface{} `json:"params"`
	SavedCount   int                    `json:"saved_count"`
	SuiteID      *uint                  `json:"suite_id,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	StartedAt    string                 `json:"started_at,omitempty"`
	FinishedAt   string                 `json:"finished_at,omitempty"`
}
