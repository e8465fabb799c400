package api

import (
	"strconv"
	"strings"
	"time"

	"studyportal/database"
	"studyportal/middleware"
	"studyportal/models"

	"github.com/gin-gonic/gin"
)

// LedgerHandler 记账处理器
type LedgerHandler struct{}

// NewLedgerHandler 创建记账处理器
func NewLedgerHandler() *LedgerHandler {
	return &LedgerHandler{}
}

// CreateTransactionRequest 创建流水请求
type CreateTransactionRequest struct {
	Description string  `json:"description" binding:"required" example:"Bus ticket"`
	Amount      float64 `json:"amount" binding:"required,gt=0" example:"50"`
	Category    string  `json:"category" binding:"required" example:"Transport"`
}

// TransactionListRequest 流水列表请求
type TransactionListRequest struct {
	Page     int    `form:"page" example:"1"`
	PageSize int    `form:"page_size" example:"10"`
	Category string `form:"category" example:"Transport"`
}

// SetBudgetRequest 设置预算请求
type SetBudgetRequest struct {
	Amount float64 `json:"amount" example:"500"`
}

// CreateTransaction 创建流水
// @Summary 创建流水
// @Description 记录一笔消费，金额必须为正数，类别必须在类别表中存在
// @Tags 记账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "流水信息"
// @Success 200 {object} Response{data=models.Transaction} "创建成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [post]
func (h *LedgerHandler) CreateTransaction(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		BadRequest(c, "描述不能为空")
		return
	}

	// 校验类别是否存在（来源于数据库）
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		BadRequest(c, "类别不能为空")
		return
	}
	var cat models.ExpenseCategory
	if err := database.DB.Where("name = ?", req.Category).First(&cat).Error; err != nil {
		BadRequest(c, "无效的消费类别")
		return
	}

	tx := models.Transaction{
		UserID:      userID,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Date:        time.Now().Format("2006-01-02"),
	}

	if err := database.DB.Create(&tx).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "创建流水失败"))
		return
	}

	SuccessWithMessage(c, "创建成功", tx)
}

// ListTransactions 获取流水列表
// @Summary 获取流水列表
// @Description 获取当前用户的流水列表，按创建时间倒序（最新在前），支持分页和类别筛选
// @Tags 记账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Param category query string false "类别筛选"
// @Success 200 {object} Response{data=PageResponse{list=[]models.Transaction}} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions [get]
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req TransactionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	// 默认分页参数
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 10
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	query := database.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)

	// 类别筛选
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}

	// 获取总数
	var total int64
	query.Count(&total)

	// 获取列表（插入顺序倒序，最新在前）
	var txs []models.Transaction
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("id DESC").Offset(offset).Limit(req.PageSize).Find(&txs).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}

	Success(c, PageResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		List:     txs,
	})
}

// DeleteTransaction 删除流水
// @Summary 删除流水
// @Description 按ID删除流水；记录不存在时同样返回成功（幂等删除）
// @Tags 记账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "流水ID"
// @Success 200 {object} Response "删除成功"
// @Failure 400 {object} Response "无效的ID"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/transactions/{id} [delete]
func (h *LedgerHandler) DeleteTransaction(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		BadRequest(c, "无效的ID")
		return
	}

	// 幂等删除：目标不存在也视为成功
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Transaction{}).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "删除失败"))
		return
	}

	SuccessWithMessage(c, "删除成功", nil)
}

// GetBudget 获取预算
// @Summary 获取预算
// @Description 获取当前用户的预算，未设置过时返回 0
// @Tags 记账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budget [get]
func (h *LedgerHandler) GetBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	// 缺失记录视为预算 0，不是错误
	var budget models.Budget
	database.DB.Where("user_id = ?", userID).First(&budget)

	Success(c, gin.H{
		"amount": budget.Amount,
	})
}

// SetBudget 设置预算
// @Summary 设置预算
// @Description 整体覆盖当前用户的预算，必须为非负数
// @Tags 记账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBudgetRequest true "预算信息"
// @Success 200 {object} Response "设置成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/budget [put]
func (h *LedgerHandler) SetBudget(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if req.Amount < 0 {
		BadRequest(c, "预算不能为负数")
		return
	}

	// 每用户一条记录，覆盖式更新
	var budget models.Budget
	if err := database.DB.Where("user_id = ?", userID).First(&budget).Error; err != nil {
		budget = models.Budget{UserID: userID, Amount: req.Amount}
		if err := database.DB.Create(&budget).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "设置预算失败"))
			return
		}
	} else {
		if err := database.DB.Model(&budget).Update("amount", req.Amount).Error; err != nil {
			InternalError(c, SafeErrorMessage(err, "设置预算失败"))
			return
		}
	}

	SuccessWithMessage(c, "设置成功", gin.H{"amount": req.Amount})
}

// GetTotals 获取汇总
// @Summary 获取汇总
// @Description 每次读取实时计算：总支出为全部流水金额之和，剩余额度为预算减总支出
// @Tags 记账
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/totals [get]
func (h *LedgerHandler) GetTotals(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	// 总支出
	var totalSpent float64
	database.DB.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalSpent)

	// 预算（缺失视为 0）
	var budget models.Budget
	database.DB.Where("user_id = ?", userID).First(&budget)

	Success(c, gin.H{
		"total_spent": totalSpent,
		"budget":      budget.Amount,
		"remaining":   budget.Amount - totalSpent,
	})
}

// GetCategories 获取消费类别列表
// @Summary 获取消费类别列表
// @Description 获取所有可用的消费类别，按排序字段升序排列
// @Tags 记账
// @Accept json
// @Produce json
// @Success 200 {object} Response{data=[]models.ExpenseCategory} "获取成功"
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/categories [get]
func (h *LedgerHandler) GetCategories(c *gin.Context) {
	var list []models.ExpenseCategory
	if err := database.DB.Order("sort ASC, id ASC").Find(&list).Error; err != nil {
		InternalError(c, SafeErrorMessage(err, "查询失败"))
		return
	}
	Success(c, list)
}
