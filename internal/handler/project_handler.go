package handler

import (
	"strconv"

	"testhub/internal/dto"
	"testhub/internal/middleware"
	"testhub/internal/models"
	"testhub/internal/repository"
	"testhub/internal/utils"

	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectRepo *repository.ProjectRepository
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectRepo *repository.ProjectRepository) *ProjectHandler {
	return &ProjectHandler{
		projectRepo: projectRepo,
	}
}

// ListProjects 获取项目列表
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}

	projects, total, err := h.projectRepo.List((page-1)*pageSize, pageSize)
	if err != nil {
		utils.InternalError(c, "查询项目列表失败")
		return
	}

	utils.PaginatedResponse(c, projects, total, page, pageSize)
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	project := &models.Project{
		ProjectName: req.ProjectName,
		Description: req.Description,
		CreatorID:   userID,
	}

	if err := h.projectRepo.Create(project); err != nil {
		utils.InternalError(c, "创建项目失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", project)
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的项目ID")
		return
	}

	project, err := h.projectRepo.GetByID(uint(id))
	if err != nil {
		utils.NotFound(c, "项目不存在")
		return
	}

	utils.SuccessResponse(c, project)
}

// ListIterations 获取项目下的迭代列表
func (h *ProjectHandler) ListIterations(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的项目ID")
		return
	}

	iterations, err := h.projectRepo.ListIterationsByProject(uint(projectID))
	if err != nil {
		utils.InternalError(c, "查询迭代列表失败")
		return
	}

	utils.SuccessResponse(c, iterations)
}

// CreateIteration 创建迭代
func (h *ProjectHandler) CreateIteration(c *gin.Context) {
	var req dto.CreateIterationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if _, err := h.projectRepo.GetByID(req.ProjectID); err != nil {
		utils.NotFound(c, "项目不存在")
		return
	}

	iteration := &models.Iteration{
		IterationName: req.IterationName,
		ProjectID:     req.ProjectID,
		Description:   req.Description,
	}

	if err := h.projectRepo.CreateIteration(iteration); err != nil {
		utils.InternalError(c, "创建迭代失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", iteration)
}

// ListRequirements 获取迭代下的版本需求列表
func (h *ProjectHandler) ListRequirements(c *gin.Context) {
	iterationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的迭代ID")
		return
	}

	requirements, err := h.projectRepo.ListRequirementsByIteration(uint(iterationID))
	if err != nil {
		utils.InternalError(c, "查询需求列表失败")
		return
	}

	utils.SuccessResponse(c, requirements)
}

// CreateRequirement 创建版本需求
func (h *ProjectHandler) CreateRequirement(c *gin.Context) {
	var req dto.CreateRequirementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if _, err := h.projectRepo.GetByID(req.ProjectID); err != nil {
		utils.NotFound(c, "项目不存在")
		return
	}

	requirement := &models.VersionRequirement{
		RequirementName: req.RequirementName,
		ProjectID:       req.ProjectID,
		IterationID:     req.IterationID,
		Description:     req.Description,
	}

	if err := h.projectRepo.CreateRequirement(requirement); err != nil {
		utils.InternalError(c, "创建需求失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", requirement)
}
