package service

import (
	"testing"

	"studyportal/config"

	"github.com/stretchr/testify/assert"
)

func newTestEmailService() *EmailService {
	return NewEmailService(&config.EmailConfig{})
}

func TestGenerateResetCodeEmailBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateResetCodeEmailBody("张三", "888999")
	assert.Contains(t, body, "张三")
	assert.Contains(t, body, "888999")
	assert.Contains(t, body, "密码重置")
	assert.Contains(t, body, "10 分钟")
}

func TestGenerateSupportEmailBody(t *testing.T) {
	s := newTestEmailService()
	body := s.generateSupportEmailBody("student@x.com", "无法下载 college 板块的文件")
	assert.Contains(t, body, "student@x.com")
	assert.Contains(t, body, "无法下载 college 板块的文件")

	// 用户输入被转义，不会注入 HTML
	body2 := s.generateSupportEmailBody("a@b.com", "<script>alert(1)</script>")
	assert.NotContains(t, body2, "<script>")
	assert.Contains(t, body2, "&lt;script&gt;")
}

func TestSendDisabledService(t *testing.T) {
	s := newTestEmailService()

	// 未启用邮件服务时所有发送入口直接报错
	assert.Error(t, s.SendPasswordResetCode("a@b.com", "user", "123456"))
	assert.Error(t, s.SendSupportMessage("support101@gmail.com", "a@b.com", "标题", "内容"))
	assert.Error(t, s.SendTestEmail("a@b.com"))
}
