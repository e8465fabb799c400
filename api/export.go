package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"studyportal/database"
	"studyportal/middleware"
	"studyportal/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

// parseDateRange 解析并校验导出时间范围（日期均为 2006-01-02 格式字符串）
func parseDateRange(c *gin.Context) (string, string, bool) {
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	if startDate == "" || endDate == "" {
		BadRequest(c, "请提供开始日期和结束日期")
		return "", "", false
	}
	if _, err := time.ParseInLocation("2006-01-02", startDate, time.Local); err != nil {
		BadRequest(c, "开始日期格式错误，应为: 2006-01-02")
		return "", "", false
	}
	if _, err := time.ParseInLocation("2006-01-02", endDate, time.Local); err != nil {
		BadRequest(c, "结束日期格式错误，应为: 2006-01-02")
		return "", "", false
	}
	return startDate, endDate, true
}

// queryRange 查询时间范围内的流水，按日期倒序
func queryRange(userID uint, startDate, endDate string) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := database.DB.Where("user_id = ? AND date >= ? AND date <= ?", userID, startDate, endDate).
		Order("date DESC, id DESC").
		Find(&txs).Error
	return txs, err
}

// ExportCSV 导出流水为 CSV
// @Summary 导出流水为 CSV
// @Description 根据日期范围导出流水记录为 CSV 文件
// @Tags 导出
// @Accept json
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2026-01-01)"
// @Param end_date query string true "结束日期 (2026-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startDate, endDate, ok := parseDateRange(c)
	if !ok {
		return
	}

	txs, err := queryRange(userID, startDate, endDate)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	buf := new(bytes.Buffer)
	// 添加 BOM 以支持 Excel 中文显示
	buf.WriteString("\xEF\xBB\xBF")

	writer := csv.NewWriter(buf)

	headers := []string{"ID", "描述", "金额", "类别", "日期", "创建时间"}
	if err := writer.Write(headers); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	for _, tx := range txs {
		row := []string{
			fmt.Sprintf("%d", tx.ID),
			tx.Description,
			fmt.Sprintf("%.2f", tx.Amount),
			tx.Category,
			tx.Date,
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "生成 CSV 失败")
			return
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "生成 CSV 失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s_%s.csv", startDate, endDate)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Length", fmt.Sprintf("%d", buf.Len()))

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportJSON 导出流水为 JSON
// @Summary 导出流水为 JSON
// @Description 根据日期范围导出流水记录为 JSON 格式，含条数与金额汇总
// @Tags 导出
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2026-01-01)"
// @Param end_date query string true "结束日期 (2026-12-31)"
// @Success 200 {object} Response{data=[]models.Transaction} "导出成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/json [get]
func (h *ExportHandler) ExportJSON(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startDate, endDate, ok := parseDateRange(c)
	if !ok {
		return
	}

	txs, err := queryRange(userID, startDate, endDate)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	var totalAmount float64
	for _, tx := range txs {
		totalAmount += tx.Amount
	}

	Success(c, gin.H{
		"start_date":   startDate,
		"end_date":     endDate,
		"total_count":  len(txs),
		"total_amount": totalAmount,
		"transactions": txs,
	})
}

// ExportExcel 导出流水为 Excel
// @Summary 导出流水为 Excel
// @Description 根据日期范围导出流水记录为带样式的 xlsx 文件，末尾附汇总行
// @Tags 导出
// @Accept json
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2026-01-01)"
// @Param end_date query string true "结束日期 (2026-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	startDate, endDate, ok := parseDateRange(c)
	if !ok {
		return
	}

	txs, err := queryRange(userID, startDate, endDate)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询数据失败"))
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "消费记录"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "C", 15)
	f.SetColWidth(sheetName, "D", "D", 15)
	f.SetColWidth(sheetName, "E", "E", 15)
	f.SetColWidth(sheetName, "F", "F", 20)

	headers := []string{"ID", "描述", "金额", "类别", "日期", "创建时间"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	var totalAmount float64
	for i, tx := range txs {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), tx.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), tx.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), tx.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), tx.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), tx.Date)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), tx.CreatedAt.Format("2006-01-02 15:04:05"))

		f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), dataStyle)
		totalAmount += tx.Amount
	}

	// 汇总行
	summaryRow := len(txs) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})

	f.SetCellValue(sheetName, fmt.Sprintf("A%d", summaryRow), "合计")
	f.MergeCell(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("B%d", summaryRow))
	f.SetCellValue(sheetName, fmt.Sprintf("C%d", summaryRow), totalAmount)
	f.SetCellValue(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("共 %d 条记录", len(txs)))
	f.MergeCell(sheetName, fmt.Sprintf("D%d", summaryRow), fmt.Sprintf("F%d", summaryRow))
	f.SetCellStyle(sheetName, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), summaryStyle)

	filename := fmt.Sprintf("消费记录_%s_%s.xlsx", startDate, endDate)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "生成 Excel 失败")
		return
	}
}
