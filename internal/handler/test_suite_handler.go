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

// TestSuiteHandler 测试套件处理器
type TestSuiteHandler struct {
	suiteRepo *repository.TestSuiteRepository
	caseRepo  *repository.TestCaseRepository
}

// NewTestSuiteHandler 创建测试套件处理器
func NewTestSuiteHandler(suiteRepo *repository.TestSuiteRepository, caseRepo *repository.TestCaseRepository) *TestSuiteHandler {
	return &TestSuiteHandler{
		suiteRepo: suiteRepo,
		caseRepo:  caseRepo,
	}
}

// GetSuiteTree 获取项目的套件目录树
func (h *TestSuiteHandler) GetSuiteTree(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Query("project_id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的项目ID")
		return
	}

	suites, err := h.suiteRepo.ListByProject(uint(projectID))
	if err != nil {
		utils.InternalError(c, "查询套件列表失败")
		return
	}

	utils.SuccessResponse(c, buildSuiteTree(suites))
}

// buildSuiteTree 按parent_id组装目录树，保留数据库排序
func buildSuiteTree(suites []models.TestSuite) []*dto.SuiteNode {
	nodes := make(map[uint]*dto.SuiteNode, len(suites))
	for _, s := range suites {
		nodes[s.ID] = &dto.SuiteNode{
			ID:          s.ID,
			SuiteName:   s.SuiteName,
			Description: s.Description,
			Type:        s.Type,
			ParentID:    s.ParentID,
			Children:    []*dto.SuiteNode{},
		}
	}

	roots := make([]*dto.SuiteNode, 0)
	for _, s := range suites {
		node := nodes[s.ID]
		if s.ParentID != nil {
			if parent, ok := nodes[*s.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

// GetSuite 获取套件详情
func (h *TestSuiteHandler) GetSuite(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的套件ID")
		return
	}

	suite, err := h.suiteRepo.GetByID(uint(id))
	if err != nil {
		utils.NotFound(c, "套件不存在")
		return
	}

	utils.SuccessResponse(c, suite)
}

// CreateSuite 创建套件
func (h *TestSuiteHandler) CreateSuite(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateSuiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if req.Type == "" {
		req.Type = models.SuiteTypeSuite
	}

	// 父节点必须是目录
	if req.ParentID != nil {
		parent, err := h.suiteRepo.GetByID(*req.ParentID)
		if err != nil {
			utils.NotFound(c, "父节点不存在")
			return
		}
		if !parent.IsFolder() {
			utils.BadRequest(c, "父节点必须是目录类型")
			return
		}
	}

	suite := &models.TestSuite{
		SuiteName:   req.SuiteName,
		Description: req.Description,
		Type:        req.Type,
		ParentID:    req.ParentID,
		ProjectID:   req.ProjectID,
		CreatorID:   userID,
	}

	if err := h.suiteRepo.Create(suite); err != nil {
		utils.InternalError(c, "创建套件失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", suite)
}

// DeleteSuite 删除套件，存在子节点或用例时拒绝
func (h *TestSuiteHandler) DeleteSuite(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的套件ID")
		return
	}

	suite, err := h.suiteRepo.GetByID(uint(id))
	if err != nil {
		utils.NotFound(c, "套件不存在")
		return
	}

	children, err := h.suiteRepo.ListChildren(suite.ID)
	if err != nil {
		utils.InternalError(c, "查询子节点失败")
		return
	}
	if len(children) > 0 {
		utils.BadRequest(c, "套件下存在子节点，无法删除")
		return
	}

	_, total, err := h.caseRepo.ListBySuite(suite.ID, 1, 1)
	if err != nil {
		utils.InternalError(c, "查询套件用例失败")
		return
	}
	if total > 0 {
		utils.BadRequest(c, "套件下存在测试用例，无法删除")
		return
	}

	if err := h.suiteRepo.Delete(suite.ID); err != nil {
		utils.InternalError(c, "删除套件失败")
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}
