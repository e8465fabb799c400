package api

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"studyportal/database"
	"studyportal/models"
	"studyportal/storage"

	"github.com/gin-gonic/gin"
)

// CatalogHandler 资料目录处理器
// 文件内容写入对象存储，元数据落在 uploaded_files 表
type CatalogHandler struct {
	store storage.ObjectStore
}

// NewCatalogHandler 创建资料目录处理器
func NewCatalogHandler(store storage.ObjectStore) *CatalogHandler {
	return &CatalogHandler{store: store}
}

// UploadResult 批量上传结果
type UploadResult struct {
	Uploaded int    `json:"uploaded"`
	Total    int    `json:"total"`
	Failed   string `json:"failed,omitempty"`
}

// UploadFiles 上传资料文件
// @Summary 上传资料文件
// @Description 管理员向指定板块批量上传文件。逐个顺序处理，遇到失败立即停止，
// @Description 返回已成功数量、总数量和失败文件名。先写对象存储再写元数据，
// @Description 元数据写入失败时回收已写入的对象，避免产生孤儿对象
// @Tags 资料目录
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param category path string true "板块 class-9-10/class-11-12/college/jee-gate-pyq"
// @Param files formData file true "文件（可多个）"
// @Success 200 {object} Response{data=UploadResult} "全部上传成功"
// @Failure 400 {object} Response "板块无效或未选择文件"
// @Failure 401 {object} Response "未授权"
// @Failure 403 {object} Response "无管理员权限"
// @Failure 500 {object} Response{data=UploadResult} "部分上传失败"
// @Router /api/v1/files/{category} [post]
func (h *CatalogHandler) UploadFiles(c *gin.Context) {
	category := c.Param("category")
	if !models.IsValidFileSection(category) {
		BadRequest(c, "无效的板块，可选值：class-9-10、class-11-12、college、jee-gate-pyq")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, "请选择要上传的文件")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		BadRequest(c, "请选择要上传的文件")
		return
	}

	total := len(files)
	uploaded := 0

	for _, fileHeader := range files {
		key, err := models.NewObjectKey(category, fileHeader.Filename)
		if err != nil {
			h.failUpload(c, uploaded, total, fileHeader.Filename,
				SafeErrorMessage(err, "生成对象键失败"))
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			h.failUpload(c, uploaded, total, fileHeader.Filename,
				SafeErrorMessage(err, "读取文件失败"))
			return
		}

		if err := h.store.Put(c.Request.Context(), key, f); err != nil {
			f.Close()
			h.failUpload(c, uploaded, total, fileHeader.Filename,
				SafeErrorMessage(err, "文件写入失败"))
			return
		}
		f.Close()

		record := models.UploadedFile{
			FileName: fileHeader.Filename,
			FilePath: key,
			FileSize: fileHeader.Size,
			FileType: fileHeader.Header.Get("Content-Type"),
			Category: category,
		}
		if err := database.DB.Create(&record).Error; err != nil {
			// 元数据写入失败，回收已写入的对象；回收失败只记录日志
			if delErr := h.store.Delete(c.Request.Context(), key); delErr != nil {
				log.Printf("回收孤儿对象失败 key=%s: %v", key, delErr)
			}
			h.failUpload(c, uploaded, total, fileHeader.Filename,
				SafeErrorMessage(err, "保存文件记录失败"))
			return
		}

		uploaded++
	}

	SuccessWithMessage(c, fmt.Sprintf("成功上传 %d 个文件", uploaded), UploadResult{
		Uploaded: uploaded,
		Total:    total,
	})
}

// failUpload 批量上传中途失败时的统一响应，带上成功数量与失败文件名
func (h *CatalogHandler) failUpload(c *gin.Context, uploaded, total int, fileName, message string) {
	c.JSON(500, Response{
		Code:    500,
		Message: fmt.Sprintf("文件 %s 上传失败：%s", fileName, message),
		Data: UploadResult{
			Uploaded: uploaded,
			Total:    total,
			Failed:   fileName,
		},
	})
}

// ListFiles 获取板块文件列表
// @Summary 获取板块文件列表
// @Description 获取指定板块的文件列表，按上传时间倒序
// @Tags 资料目录
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param category path string true "板块 class-9-10/class-11-12/college/jee-gate-pyq"
// @Success 200 {object} Response{data=[]models.UploadedFile} "获取成功"
// @Failure 400 {object} Response "板块无效"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/files/{category} [get]
func (h *CatalogHandler) ListFiles(c *gin.Context) {
	category := c.Param("category")
	if !models.IsValidFileSection(category) {
		BadRequest(c, "无效的板块，可选值：class-9-10、class-11-12、college、jee-gate-pyq")
		return
	}

	var files []models.UploadedFile
	if err := database.DB.Where("category = ?", category).
		Order("created_at DESC").Find(&files).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, files)
}

// DownloadFile 下载资料文件
// @Summary 下载资料文件
// @Description 以原始文件名下载文件内容
// @Tags 资料目录
// @Accept json
// @Produce octet-stream
// @Security BearerAuth
// @Param category path string true "板块"
// @Param id path int true "文件ID"
// @Success 200 {file} file "文件内容"
// @Failure 400 {object} Response "无效的ID"
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "文件不存在"
// @Router /api/v1/files/{category}/download/{id} [get]
func (h *CatalogHandler) DownloadFile(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	var record models.UploadedFile
	if err := database.DB.First(&record, id).Error; err != nil {
		NotFound(c, "文件不存在")
		return
	}

	data, err := h.store.Get(c.Request.Context(), record.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			NotFound(c, "文件内容不存在")
			return
		}
		InternalError(c, SafeErrorMessage(err, "读取文件失败"))
		return
	}

	contentType := record.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", record.FileName))
	c.Data(200, contentType, data)
}
