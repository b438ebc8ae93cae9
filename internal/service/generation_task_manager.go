package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"testhub/internal/config"
	"testhub/internal/models"
	"testhub/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ProgressEvent 任务进度事件
type ProgressEvent struct {
	Type       string `json:"type"` // progress, error, finished
	Message    string `json:"message,omitempty"`
	Progress   int    `json:"progress,omitempty"`
	SavedCount int    `json:"saved_count,omitempty"`
	SuiteID    *uint  `json:"suite_id,omitempty"`
	ReturnCode *int   `json:"return_code,omitempty"`
}

// GenerationTaskContext 生成任务的内存上下文
type GenerationTaskContext struct {
	TaskID     string
	UserID     uint
	Status     string
	Params     *GenerationParams
	SuiteID    uint
	Filename   string
	FileData   []byte
	StartTime  time.Time
	EndTime    *time.Time
	Finished   bool
	CancelFunc context.CancelFunc

	// 事件历史与订阅者管理
	eventHistory    []*ProgressEvent
	eventLock       sync.RWMutex
	subscribers     map[chan *ProgressEvent]bool
	subscribersLock sync.RWMutex
}

// AddEvent 添加事件到历史并广播给所有订阅者
func (tc *GenerationTaskContext) AddEvent(event *ProgressEvent) {
	tc.eventLock.Lock()
	tc.eventHistory = append(tc.eventHistory, event)
	tc.eventLock.Unlock()

	tc.subscribersLock.RLock()
	for ch := range tc.subscribers {
		select {
		case ch <- event:
		default:
			// 通道满了，跳过，避免阻塞任务
		}
	}
	tc.subscribersLock.RUnlock()
}

// Subscribe 订阅事件，返回接收事件的通道
func (tc *GenerationTaskContext) Subscribe() chan *ProgressEvent {
	ch := make(chan *ProgressEvent, 200)

	tc.subscribersLock.Lock()
	if tc.subscribers == nil {
		tc.subscribers = make(map[chan *ProgressEvent]bool)
	}
	tc.subscribers[ch] = true
	tc.subscribersLock.Unlock()

	return ch
}

// Unsubscribe 取消订阅。不关闭通道，由SSE handler通过context检测断连
func (tc *GenerationTaskContext) Unsubscribe(ch chan *ProgressEvent) {
	tc.subscribersLock.Lock()
	delete(tc.subscribers, ch)
	tc.subscribersLock.Unlock()
}

// GetEventHistory 获取事件历史副本
func (tc *GenerationTaskContext) GetEventHistory() []*ProgressEvent {
	tc.eventLock.RLock()
	defer tc.eventLock.RUnlock()

	history := make([]*ProgressEvent, len(tc.eventHistory))
	copy(history, tc.eventHistory)
	return history
}

// GenerationTaskManager AI生成任务管理器，单个任务在后台goroutine中串行执行整条管道
type GenerationTaskManager struct {
	genService  *GenerationService
	taskRepo    *repository.GenerationTaskRepository
	redisClient *redis.Client
	cfg         *config.Config
	logger      *logrus.Logger

	tasks     map[string]*GenerationTaskContext
	tasksLock sync.RWMutex
}

// NewGenerationTaskManager 创建生成任务管理器
func NewGenerationTaskManager(
	genService *GenerationService,
	taskRepo *repository.GenerationTaskRepository,
	redisClient *redis.Client,
	cfg *config.Config,
	logger *logrus.Logger,
) *GenerationTaskManager {
	return &GenerationTaskManager{
		genService:  genService,
		taskRepo:    taskRepo,
		redisClient: redisClient,
		cfg:         cfg,
		logger:      logger,
		tasks:       make(map[string]*GenerationTaskContext),
	}
}

// StartTask 启动生成任务，立即返回任务ID
func (m *GenerationTaskManager) StartTask(userID uint, params *GenerationParams, suiteID uint, filename string, fileData []byte) (string, error) {
	taskID := uuid.NewString()

	task := &models.GenerationTask{
		TaskID: taskID,
		UserID: userID,
		Status: "running",
		Params: models.JSONMap{
			"project_id":       params.ProjectID,
			"iteration_id":     params.IterationID,
			"requirement_id":   params.RequirementID,
			"project_name":     params.ProjectName,
			"iteration_name":   params.IterationName,
			"requirement_name": params.RequirementName,
			"suite_id":         suiteID,
			"filename":         filename,
		},
		StartedAt: time.Now(),
	}

	if err := m.taskRepo.Create(task); err != nil {
		return "", fmt.Errorf("创建任务记录失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	taskCtx := &GenerationTaskContext{
		TaskID:     taskID,
		UserID:     userID,
		Status:     "running",
		Params:     params,
		SuiteID:    suiteID,
		Filename:   filename,
		FileData:   fileData,
		StartTime:  time.Now(),
		CancelFunc: cancel,
	}

	m.tasksLock.Lock()
	m.tasks[taskID] = taskCtx
	m.tasksLock.Unlock()

	go m.runTask(ctx, taskCtx)

	return taskID, nil
}

// runTask 在后台执行整条生成管道
func (m *GenerationTaskManager) runTask(ctx context.Context, taskCtx *GenerationTaskContext) {
	log := m.logger.WithField("task_id", taskCtx.TaskID)
	log.Info("生成任务开始执行")

	// 模型并发限流
	limiterKey := "model_limit:" + m.cfg.AI.Model
	acquired, err := m.acquireModelToken(ctx, limiterKey, m.cfg.Redis.DefaultMaxConcurrency)
	if err != nil {
		m.failTask(taskCtx, fmt.Sprintf("获取模型令牌失败: %v", err))
		return
	}
	if !acquired {
		m.failTask(taskCtx, "模型服务繁忙，请稍后重试")
		return
	}
	defer m.releaseModelToken(limiterKey)

	report := func(message string, progress int) {
		taskCtx.AddEvent(&ProgressEvent{
			Type:     "progress",
			Message:  message,
			Progress: progress,
		})
	}

	records, err := m.genService.GenerateWithProgress(ctx, taskCtx.Params, taskCtx.Filename, taskCtx.FileData, report)
	if err != nil {
		if errors.Is(err, context.Canceled) || taskCtx.Status == "stopped" {
			log.Info("生成任务已被停止")
			return
		}
		m.failTask(taskCtx, err.Error())
		return
	}

	report(fmt.Sprintf("AI生成%d个用例，正在保存...", len(records)), 70)

	result, err := m.genService.SaveCasesWithProgress(ctx, records, taskCtx.SuiteID, taskCtx.Params, report)
	savedCount := 0
	var resolvedSuiteID *uint
	if result != nil {
		savedCount = len(result.SavedCases)
		resolvedSuiteID = &result.SuiteID
	}

	m.setProgressCount(taskCtx.TaskID, savedCount)

	if err != nil {
		// 已保存的部分保留，剩余用例不再尝试
		m.taskRepo.UpdateFinished(taskCtx.TaskID, "error", resolvedSuiteID, savedCount, err.Error())
		m.finishContext(taskCtx, "error")
		taskCtx.AddEvent(&ProgressEvent{
			Type:       "error",
			Message:    fmt.Sprintf("保存中断: %v，已保存%d个用例", err, savedCount),
			SavedCount: savedCount,
			SuiteID:    resolvedSuiteID,
		})
		code := 1
		taskCtx.AddEvent(&ProgressEvent{Type: "finished", ReturnCode: &code})
		return
	}

	m.taskRepo.UpdateFinished(taskCtx.TaskID, "finished", resolvedSuiteID, savedCount, "")
	m.finishContext(taskCtx, "finished")

	taskCtx.AddEvent(&ProgressEvent{
		Type:       "progress",
		Message:    fmt.Sprintf("保存完成，共%d个用例", savedCount),
		Progress:   100,
		SavedCount: savedCount,
		SuiteID:    resolvedSuiteID,
	})
	code := 0
	taskCtx.AddEvent(&ProgressEvent{Type: "finished", ReturnCode: &code})

	log.WithField("saved", savedCount).Info("生成任务执行完成")
}

// failTask 标记任务失败并广播错误事件
func (m *GenerationTaskManager) failTask(taskCtx *GenerationTaskContext, message string) {
	m.logger.WithField("task_id", taskCtx.TaskID).Error(message)
	m.taskRepo.UpdateFinished(taskCtx.TaskID, "error", nil, 0, message)
	m.finishContext(taskCtx, "error")

	taskCtx.AddEvent(&ProgressEvent{Type: "error", Message: message})
	code := 1
	taskCtx.AddEvent(&ProgressEvent{Type: "finished", ReturnCode: &code})
}

// finishContext 更新内存上下文的结束状态
func (m *GenerationTaskManager) finishContext(taskCtx *GenerationTaskContext, status string) {
	now := time.Now()
	taskCtx.Status = status
	taskCtx.Finished = true
	taskCtx.EndTime = &now
}

// acquireModelToken 获取模型限流令牌，带轮询等待与指数退避
func (m *GenerationTaskManager) acquireModelToken(ctx context.Context, key string, maxConcurrent int) (bool, error) {
	if m.redisClient == nil {
		return true, nil
	}

	maxWaitTime := m.cfg.Redis.GetMaxWaitDuration()
	startTime := time.Now()
	retryInterval := 500 * time.Millisecond
	maxRetryInterval := 5 * time.Second

	for {
		elapsed := time.Since(startTime)
		if elapsed >= maxWaitTime {
			return false, fmt.Errorf("获取模型令牌超时: 已等待 %v", elapsed.Round(time.Second))
		}

		current, err := m.redisClient.Incr(ctx, key).Result()
		if err != nil {
			return false, fmt.Errorf("获取模型令牌失败: %w", err)
		}

		if current == 1 {
			m.redisClient.Expire(ctx, key, time.Hour)
		}

		if current <= int64(maxConcurrent) {
			return true, nil
		}

		// 超过限制，释放令牌并等待重试
		m.redisClient.Decr(ctx, key)

		nextRetryInterval := retryInterval * 2
		if nextRetryInterval > maxRetryInterval {
			nextRetryInterval = maxRetryInterval
		}

		select {
		case <-time.After(retryInterval):
			retryInterval = nextRetryInterval
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// releaseModelToken 释放模型限流令牌
func (m *GenerationTaskManager) releaseModelToken(key string) {
	if m.redisClient == nil {
		return
	}
	m.redisClient.Decr(context.Background(), key)
}

// setProgressCount 将已保存数量写入Redis，供轮询接口读取
func (m *GenerationTaskManager) setProgressCount(taskID string, savedCount int) {
	if m.redisClient == nil {
		return
	}

	ctx := context.Background()
	key := "generation_progress:" + taskID
	pipe := m.redisClient.Pipeline()
	pipe.HSet(ctx, key, "saved_count", savedCount)
	pipe.Expire(ctx, key, 24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		m.logger.WithError(err).Warn("写入Redis任务进度失败")
	}
}

// clearProgress 清理Redis中的任务进度数据
func (m *GenerationTaskManager) clearProgress(taskID string) {
	if m.redisClient == nil {
		return
	}

	if err := m.redisClient.Del(context.Background(), "generation_progress:"+taskID).Err(); err != nil {
		m.logger.WithError(err).Warn("清理Redis任务进度失败")
	}
}

// StopTask 停止任务
func (m *GenerationTaskManager) StopTask(taskID string, userID uint) error {
	m.tasksLock.RLock()
	taskCtx, exists := m.tasks[taskID]
	m.tasksLock.RUnlock()

	if exists {
		if taskCtx.UserID != userID {
			return fmt.Errorf("无权停止此任务")
		}

		if taskCtx.CancelFunc != nil {
			taskCtx.CancelFunc()
		}

		m.finishContext(taskCtx, "stopped")
		m.taskRepo.UpdateFinished(taskID, "stopped", nil, 0, "")
		m.clearProgress(taskID)

		code := -1
		taskCtx.AddEvent(&ProgressEvent{Type: "finished", ReturnCode: &code})

		return nil
	}

	// 内存中不存在，可能是后端重启过，直接修正数据库状态
	task, err := m.taskRepo.GetByTaskID(taskID)
	if err != nil {
		return fmt.Errorf("任务不存在")
	}

	if task.UserID != userID {
		return fmt.Errorf("无权停止此任务")
	}

	if task.Status != "running" {
		return fmt.Errorf("任务状态为 %s，无法停止", task.Status)
	}

	m.logger.WithField("task_id", taskID).Warn("任务在内存中不存在，直接更新数据库状态为stopped")
	m.taskRepo.UpdateFinished(taskID, "stopped", nil, 0, "")
	m.clearProgress(taskID)

	return nil
}

// DeleteTask 删除已完成的任务
func (m *GenerationTaskManager) DeleteTask(taskID string, userID uint) error {
	m.tasksLock.RLock()
	taskCtx, exists := m.tasks[taskID]
	m.tasksLock.RUnlock()

	if exists {
		if taskCtx.UserID != userID {
			return fmt.Errorf("无权删除此任务")
		}
		if !taskCtx.Finished {
			return fmt.Errorf("只能删除已完成的任务")
		}

		m.tasksLock.Lock()
		delete(m.tasks, taskID)
		m.tasksLock.Unlock()
	}

	return m.taskRepo.DeleteByTaskID(taskID)
}

// GetTask 获取任务上下文
func (m *GenerationTaskManager) GetTask(taskID string) (*GenerationTaskContext, bool) {
	m.tasksLock.RLock()
	defer m.tasksLock.RUnlock()
	taskCtx, exists := m.tasks[taskID]
	return taskCtx, exists
}

// GetProgress 订阅任务进度，返回事件通道、历史事件和取消订阅函数
func (m *GenerationTaskManager) GetProgress(taskID string) (<-chan *ProgressEvent, []*ProgressEvent, func(), error) {
	m.tasksLock.RLock()
	taskCtx, exists := m.tasks[taskID]
	m.tasksLock.RUnlock()

	if !exists {
		return nil, nil, nil, fmt.Errorf("任务不存在")
	}

	subscriberChan := taskCtx.Subscribe()
	history := taskCtx.GetEventHistory()

	unsubscribe := func() {
		taskCtx.Unsubscribe(subscriberChan)
	}

	return subscriberChan, history, unsubscribe, nil
}

// GetTasksFromDB 从数据库获取用户的任务列表
func (m *GenerationTaskManager) GetTasksFromDB(userID uint) ([]*models.GenerationTask, error) {
	return m.taskRepo.GetByUserID(userID)
}
