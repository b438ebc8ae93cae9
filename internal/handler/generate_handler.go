package handler

import (
	"errors"
	"io"

	"testhub/internal/casegen"
	"testhub/internal/dto"
	"testhub/internal/middleware"
	"testhub/internal/service"
	"testhub/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 上传文档大小上限 20MB
const maxUploadSize = 20 << 20

// GenerateHandler AI生成用例处理器
type GenerateHandler struct {
	genService *service.GenerationService
	logger     *logrus.Logger
}

// NewGenerateHandler 创建AI生成处理器
func NewGenerateHandler(genService *service.GenerationService, logger *logrus.Logger) *GenerateHandler {
	return &GenerateHandler{
		genService: genService,
		logger:     logger,
	}
}

// Generate 同步生成测试用例，结果不入库，由前端确认后再保存
func (h *GenerateHandler) Generate(c *gin.Context) {
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

	records, err := h.genService.Generate(c.Request.Context(), params, filename, fileData)
	if err != nil {
		h.respondPipelineError(c, err)
		return
	}

	utils.SuccessResponse(c, dto.GenerateResponse{
		Cases: records,
		Total: len(records),
	})
}

// SaveCases 批量保存生成的用例
func (h *GenerateHandler) SaveCases(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.SaveCasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
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
		SuiteName:       req.SuiteName,
		CreatorID:       userID,
	}

	result, err := h.genService.SaveCases(c.Request.Context(), req.Cases, req.SuiteID, params)
	if err != nil {
		// 部分保存后失败也要把已保存数量带回去
		resp := dto.SaveCasesResponse{SuiteCreated: false}
		if result != nil {
			resp.SavedCount = len(result.SavedCases)
			resp.SuiteID = result.SuiteID
			resp.SuiteCreated = result.SuiteCreated
		}
		h.logger.WithError(err).Warn("批量保存用例失败")
		c.JSON(500, utils.Response{Code: 500, Message: err.Error(), Data: resp})
		return
	}

	utils.SuccessWithMessage(c, "保存成功", dto.SaveCasesResponse{
		SavedCount:   len(result.SavedCases),
		SuiteID:      result.SuiteID,
		SuiteCreated: result.SuiteCreated,
	})
}

// readUploadFile 读取multipart上传的需求文档
func readUploadFile(c *gin.Context) (string, []byte, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// 纯文本描述走params.Description，文件可缺省
		return "", nil, nil
	}

	if fileHeader.Size > maxUploadSize {
		return "", nil, errors.New("文件大小超过限制")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return "", nil, errors.New("读取上传文件失败")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, errors.New("读取上传文件失败")
	}

	return fileHeader.Filename, data, nil
}

// respondPipelineError 按错误类型映射HTTP状态
func (h *GenerateHandler) respondPipelineError(c *gin.Context, err error) {
	var unsupported *casegen.UnsupportedFormatError
	var docErr *casegen.DocumentParseError
	var parseErr *casegen.ResponseParseError

	switch {
	case errors.As(err, &unsupported):
		utils.BadRequest(c, err.Error())
	case errors.As(err, &docErr):
		utils.BadRequest(c, err.Error()+"。"+docErr.Hint())
	case errors.Is(err, casegen.ErrEmptyModelResponse), errors.As(err, &parseErr):
		h.logger.WithError(err).Warn("AI返回结果无法解析")
		utils.InternalError(c, err.Error())
	default:
		h.logger.WithError(err).Error("AI生成用例失败")
		utils.InternalError(c, err.Error())
	}
}
