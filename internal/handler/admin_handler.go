package handler

import (
	"strconv"

	"testhub/internal/dto"
	"testhub/internal/middleware"
	"testhub/internal/repository"
	"testhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AdminHandler 管理员处理器
type AdminHandler struct {
	userRepo *repository.UserRepository
	taskRepo *repository.GenerationTaskRepository
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(userRepo *repository.UserRepository, taskRepo *repository.GenerationTaskRepository) *AdminHandler {
	return &AdminHandler{
		userRepo: userRepo,
		taskRepo: taskRepo,
	}
}

// ListUsers 获取所有用户
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 500 {
		perPage = 20
	}

	users, total, err := h.userRepo.List((page-1)*perPage, perPage)
	if err != nil {
		utils.InternalError(c, "查询用户列表失败")
		return
	}

	userList := make([]dto.UserInfo, 0, len(users))
	for _, user := range users {
		userList = append(userList, dto.UserInfo{
			ID:       user.ID,
			Username: user.Username,
			RealName: user.RealName,
			IsActive: user.IsActive,
			IsAdmin:  user.IsAdmin,
		})
	}

	utils.PaginatedResponse(c, userList, total, page, perPage)
}

// DeleteUser 删除用户
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的用户ID")
		return
	}

	// 不允许删除自己
	if operatorID, _ := middleware.GetUserID(c); operatorID == uint(id) {
		utils.BadRequest(c, "不能删除当前登录账户")
		return
	}

	if _, err := h.userRepo.GetByID(uint(id)); err != nil {
		utils.NotFound(c, "用户不存在")
		return
	}

	if err := h.userRepo.Delete(uint(id)); err != nil {
		utils.InternalError(c, "删除用户失败")
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}

// ListAllTasks 获取全部用户的生成任务
func (h *AdminHandler) ListAllTasks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 500 {
		perPage = 20
	}

	tasks, total, err := h.taskRepo.List((page-1)*perPage, perPage)
	if err != nil {
		utils.InternalError(c, "查询任务列表失败")
		return
	}

	utils.PaginatedResponse(c, tasks, total, page, perPage)
}
