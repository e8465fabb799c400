package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"studyportal/database"
	"studyportal/middleware"
	"studyportal/models"
	"studyportal/storage"

	"github.com/gin-gonic/gin"
)

// NotesHandler 笔记处理器
// 附件内容存放在独立的笔记对象存储中，记录里只保留对象键
type NotesHandler struct {
	store storage.ObjectStore
}

// NewNotesHandler 创建笔记处理器
func NewNotesHandler(store storage.ObjectStore) *NotesHandler {
	return &NotesHandler{store: store}
}

// CreateTextNoteRequest 创建文本笔记请求
type CreateTextNoteRequest struct {
	Title   string `json:"title" binding:"required" example:"高数复习"`
	Content string `json:"content" binding:"required" example:"第三章 微分中值定理"`
}

// CreateTextNote 创建文本笔记
// @Summary 创建文本笔记
// @Description 标题与内容均不能为空
// @Tags 笔记
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTextNoteRequest true "笔记信息"
// @Success 200 {object} Response{data=models.Note} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/notes [post]
func (h *NotesHandler) CreateTextNote(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateTextNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		BadRequest(c, "标题和内容不能为空")
		return
	}

	note := models.Note{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Kind:    models.NoteKindText,
		Date:    time.Now().Format("2006-01-02"),
	}

	if err := database.DB.Create(&note).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建笔记失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", note)
}

// CreateFileNote 创建附件笔记
// @Summary 创建附件笔记
// @Description 上传 photo/video/document 类型的附件作为笔记，附件写入失败时不创建笔记
// @Tags 笔记
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param kind formData string true "笔记类型 photo/video/document"
// @Param file formData file true "附件文件"
// @Success 200 {object} Response{data=models.Note} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Failure 500 {object} Response "附件保存失败"
// @Router /api/v1/notes/file [post]
func (h *NotesHandler) CreateFileNote(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	kind := c.PostForm("kind")
	if !models.IsFileNoteKind(kind) {
		BadRequest(c, "类型错误，可选值：photo、video、document")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "请选择要上传的文件")
		return
	}

	key, err := models.NewObjectKey(fmt.Sprintf("user-%d", userID), fileHeader.Filename)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "生成对象键失败"))
		return
	}

	// 先写附件，失败则不创建笔记
	f, err := fileHeader.Open()
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "读取文件失败"))
		return
	}
	defer f.Close()

	if err := h.store.Put(c.Request.Context(), key, f); err != nil {
		InternalError(c, SafeErrorMessage(err, "附件保存失败"))
		return
	}

	note := models.Note{
		UserID:    userID,
		Title:     fileHeader.Filename,
		Content:   fmt.Sprintf("File: %s (%.2f KB)", fileHeader.Filename, float64(fileHeader.Size)/1024),
		Kind:      kind,
		Date:      time.Now().Format("2006-01-02"),
		ObjectKey: key,
		FileName:  fileHeader.Filename,
	}

	if err := database.DB.Create(&note).Error; err != nil {
		// 记录创建失败时回收已写入的附件
		_ = h.store.Delete(c.Request.Context(), key)
		InternalError(c, SafeErrorMessage(err, "创建笔记失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", note)
}

// ListNotes 获取笔记列表
// @Summary 获取笔记列表
// @Description 按类型筛选笔记，kind=all 返回全部；保持存储顺序（最新在前）
// @Tags 笔记
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param kind query string false "筛选类型 all/text/photo/video/document" default(all)
// @Success 200 {object} Response{data=[]models.Note} "获取成功"
// @Failure 400 {object} Response "类型错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/notes [get]
func (h *NotesHandler) ListNotes(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	kind := c.DefaultQuery("kind", "all")
	query := database.DB.Model(&models.Note{}).Where("user_id = ?", userID)
	if kind != "all" {
		valid := false
		for _, k := range models.GetNoteKinds() {
			if k == kind {
				valid = true
				break
			}
		}
		if !valid {
			BadRequest(c, "类型错误，可选值：all、text、photo、video、document")
			return
		}
		query = query.Where("kind = ?", kind)
	}

	var notes []models.Note
	if err := query.Order("id DESC").Find(&notes).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, notes)
}

// DeleteNote 删除笔记
// @Summary 删除笔记
// @Description 按ID删除笔记；记录不存在时同样返回成功（幂等删除）。附件尽力回收
// @Tags 笔记
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "笔记ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "无效的ID"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/notes/{id} [delete]
func (h *NotesHandler) DeleteNote(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	// 先查出对象键用于回收附件；记录不存在时幂等返回成功
	var note models.Note
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&note).Error; err != nil {
		SuccessWithMessage(c, "删除成功", nil)
		return
	}

	if err := database.DB.Delete(&note).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	if note.HasPayload() {
		_ = h.store.Delete(c.Request.Context(), note.ObjectKey)
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// DownloadNote 下载笔记附件
// @Summary 下载笔记附件
// @Description 以原始文件名下载附件；文本笔记没有附件，返回 400
// @Tags 笔记
// @Accept json
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "笔记ID"
// @Success 200 {file} file "附件内容"
// @Failure 400 {object} Response "文本笔记无附件"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "笔记或附件不存在"
// @Router /api/v1/notes/{id}/download [get]
func (h *NotesHandler) DownloadNote(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var note models.Note
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&note).Error; err != nil {
		NotFound(c, "笔记不存在")
		return
	}

	if !note.HasPayload() {
		BadRequest(c, "文本笔记没有附件")
		return
	}

	data, err := h.store.Get(c.Request.Context(), note.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			NotFound(c, "附件不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "读取附件失败"))
		return
	}

	fileName := note.FileName
	if fileName == "" {
		fileName = "download"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(200, "application/octet-stream", data)
}
