package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"testhub/internal/dto"
	"testhub/internal/middleware"
	"testhub/internal/service"
	"testhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler AI生成任务处理器
type TaskHandler struct {
	taskManager *service.GenerationTaskManager
	logger      *logrus.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(taskManager *service.GenerationTaskManager, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskManager: taskManager,
		logger:      logger,
	}
}

// StartTask 启动后台生成任务，multipart表单与同步生成接口一致
func (h *TaskHandler) StartTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.GenerateRequest
	if err := c.ShouldBind(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	filename, fileData, err := readUploadFile(c)
	if err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	params := &service.GenerationParams{
		ProjectID:       req.ProjectID,
		IterationID:     req.IterationID,
		RequirementID:   req.RequirementID,
		ProjectName:     req.ProjectName,
		IterationName:   req.IterationName,
		RequirementName: req.RequirementName,
		Description:     req.Description,
		TemplateKey:     req.TemplateKey,
		SuiteName:       req.SuiteName,
		CreatorID:       userID,
	}

	taskID, err := h.taskManager.StartTask(userID, params, req.SuiteID, filename, fileData)
	if err != nil {
		utils.InternalError(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已启动", dto.StartTaskResponse{
		TaskID: taskID,
		Status: "running",
	})
}

// GetProgress 获取任务进度(SSE)
func (h *TaskHandler) GetProgress(c *gin.Context) {
	taskID := c.Param("task_id")

	progressChan, history, unsubscribe, err := h.taskManager.GetProgress(taskID)
	if err != nil {
		utils.NotFound(c, err.Error())
		return
	}
	defer unsubscribe()

	// 设置SSE响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// 发送初始连接成功事件
	initData, _ := json.Marshal(gin.H{
		"type":    "connected",
		"message": "SSE连接已建立",
		"task_id": taskID,
	})
	fmt.Fprintf(c.Writer, "data: %s\n\n", string(initData))
	c.Writer.Flush()

	// 先回放历史事件
	finishedInHistory := false
	for _, event := range history {
		data, _ := json.Marshal(event)
		fmt.Fprintf(c.Writer, "data: %s\n\n", string(data))
		c.Writer.Flush()
		if event.Type == "finished" {
			finishedInHistory = true
		}
	}

	if finishedInHistory {
		return
	}

	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			// 客户端断开连接
			h.logger.WithField("task_id", taskID).Debug("SSE客户端断开连接")
			return
		case event, ok := <-progressChan:
			if !ok {
				return
			}
			data, _ := json.Marshal(event)
			fmt.Fprintf(c.Writer, "data: %s\n\n", string(data))
			c.Writer.Flush()

			if event.Type == "finished" {
				return
			}
		}
	}
}

// StopTask 停止任务
func (h *TaskHandler) StopTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := c.Param("task_id")

	if err := h.taskManager.StopTask(taskID, userID); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已停止", nil)
}

// DeleteTask 删除任务记录
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)
	taskID := c.Param("task_id")

	if err := h.taskManager.DeleteTask(taskID, userID); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	utils.SuccessWithMessage(c, "任务已删除", nil)
}

// GetTaskStatus 获取任务状态，优先读内存，已被回收的任务读数据库
func (h *TaskHandler) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")

	if taskCtx, exists := h.taskManager.GetTask(taskID); exists {
		resp := dto.TaskStatusResponse{
			TaskID:   taskID,
			Status:   taskCtx.Status,
			Finished: taskCtx.Finished,
		}
		// 最新事件里的保存进度
		history := taskCtx.GetEventHistory()
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].SavedCount > 0 {
				resp.SavedCount = history[i].SavedCount
				resp.SuiteID = history[i].SuiteID
				break
			}
		}
		utils.SuccessResponse(c, resp)
		return
	}

	userID, _ := middleware.GetUserID(c)
	tasks, err := h.taskManager.GetTasksFromDB(userID)
	if err != nil {
		utils.InternalError(c, "查询任务失败")
		return
	}
	for _, task := range tasks {
		if task.TaskID == taskID {
			utils.SuccessResponse(c, dto.TaskStatusResponse{
				TaskID:     task.TaskID,
				Status:     task.Status,
				Finished:   task.Status != "running",
				SavedCount: task.SavedCount,
				SuiteID:    task.SuiteID,
				Message:    task.ErrorMessage,
			})
			return
		}
	}

	utils.NotFound(c, "任务不存在")
}

// ListTasks 获取当前用户的任务列表
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	tasks, err := h.taskManager.GetTasksFromDB(userID)
	if err != nil {
		utils.InternalError(c, "查询任务列表失败")
		return
	}

	taskList := make([]dto.TaskInfo, 0, len(tasks))
	for _, task := range tasks {
		info := dto.TaskInfo{
			TaskID:       task.TaskID,
			Status:       task.Status,
			Params:       task.Params,
			SavedCount:   task.SavedCount,
			SuiteID:      task.SuiteID,
			ErrorMessage: task.ErrorMessage,
		}
		if !task.StartedAt.IsZero() {
			info.StartedAt = task.StartedAt.Format(time.RFC3339)
		}
		if task.FinishedAt != nil {
			info.FinishedAt = task.FinishedAt.Format(time.RFC3339)
		}
		taskList = append(taskList, info)
	}

	utils.SuccessResponse(c, taskList)
}
