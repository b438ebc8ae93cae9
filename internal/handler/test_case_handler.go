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

// TestCaseHandler 测试用例处理器
type TestCaseHandler struct {
	caseRepo  *repository.TestCaseRepository
	suiteRepo *repository.TestSuiteRepository
}

// NewTestCaseHandler 创建测试用例处理器
func NewTestCaseHandler(caseRepo *repository.TestCaseRepository, suiteRepo *repository.TestSuiteRepository) *TestCaseHandler {
	return &TestCaseHandler{
		caseRepo:  caseRepo,
		suiteRepo: suiteRepo,
	}
}

// ListCases 获取套件下的用例列表，按用例编号排序分页
func (h *TestCaseHandler) ListCases(c *gin.Context) {
	suiteID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的套件ID")
		return
	}

	var query dto.ListCasesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	cases, total, err := h.caseRepo.ListBySuite(uint(suiteID), query.Page, query.PageSize)
	if err != nil {
		utils.InternalError(c, "查询用例列表失败")
		return
	}

	utils.PaginatedResponse(c, cases, total, query.Page, query.PageSize)
}

// CreateCase 创建测试用例
func (h *TestCaseHandler) CreateCase(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	// 目标套件必须是叶子套件
	if req.SuiteID != nil {
		suite, err := h.suiteRepo.GetByID(*req.SuiteID)
		if err != nil {
			utils.NotFound(c, "套件不存在")
			return
		}
		if suite.IsFolder() {
			utils.BadRequest(c, "目录节点不能直接容纳用例")
			return
		}
	}

	if req.Priority == "" {
		req.Priority = "P1"
	}

	testCase := &models.TestCase{
		CaseNumber:           req.CaseNumber,
		CaseName:             req.CaseName,
		CaseDescription:      req.Description,
		Priority:             req.Priority,
		Status:               req.Status,
		Preconditions:        req.Preconditions,
		Steps:                req.Steps,
		ExpectedResult:       req.ExpectedResult,
		TestData:             req.TestData,
		SuiteID:              req.SuiteID,
		ProjectID:            req.ProjectID,
		IterationID:          req.IterationID,
		VersionRequirementID: req.VersionRequirementID,
		CreatorID:            userID,
	}

	if err := h.caseRepo.Create(testCase); err != nil {
		utils.InternalError(c, "创建用例失败")
		return
	}

	utils.SuccessWithMessage(c, "创建成功", testCase)
}

// GetCase 获取用例详情
func (h *TestCaseHandler) GetCase(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的用例ID")
		return
	}

	testCase, err := h.caseRepo.GetByID(uint(id))
	if err != nil {
		utils.NotFound(c, "用例不存在")
		return
	}

	utils.SuccessResponse(c, testCase)
}

// DeleteCase 删除测试用例
func (h *TestCaseHandler) DeleteCase(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		utils.BadRequest(c, "无效的用例ID")
		return
	}

	if _, err := h.caseRepo.GetByID(uint(id)); err != nil {
		utils.NotFound(c, "用例不存在")
		return
	}

	if err := h.caseRepo.Delete(uint(id)); err != nil {
		utils.InternalError(c, "删除用例失败")
		return
	}

	utils.SuccessWithMessage(c, "删除成功", nil)
}
