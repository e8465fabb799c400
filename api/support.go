package api

import (
	"strings"

	"studyportal/config"
	"studyportal/middleware"
	"studyportal/service"

	"github.com/gin-gonic/gin"
)

// SupportHandler 支持反馈处理器
type SupportHandler struct {
	cfg          *config.Config
	emailService *service.EmailService
}

// NewSupportHandler 创建支持反馈处理器
func NewSupportHandler(cfg *config.Config) *SupportHandler {
	return &SupportHandler{
		cfg:          cfg,
		emailService: service.NewEmailService(&cfg.Email),
	}
}

// SupportRequest 支持反馈请求
type SupportRequest struct {
	Subject string `json:"subject" binding:"required,max=200" example:"无法下载文件"`
	Message string `json:"message" binding:"required,max=5000" example:"college 板块的文件下载报错"`
}

// SendMessage 发送支持反馈
// @Summary 发送支持反馈
// @Description 将用户反馈转发到支持邮箱
// @Tags 支持
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SupportRequest true "反馈信息"
// @Success 200 {object} Response "发送成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "邮件发送失败"
// @Router /api/v1/support [post]
func (h *SupportHandler) SendMessage(c *gin.Context) {
	userEmail := middleware.GetCurrentUserEmail(c)

	var req SupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Message) == "" {
		BadRequest(c, "标题和内容不能为空")
		return
	}

	if err := h.emailService.SendSupportMessage(h.cfg.Support.Email, userEmail, req.Subject, req.Message); err != nil {
		InternalError(c, SafeErrorMessage(err, "邮件发送失败"))
		return
	}

	SuccessWithMessage(c, "反馈已发送，我们会尽快回复", nil)
}
