package router

import (
	"time"

	"studyportal/api"
	"studyportal/config"
	_ "studyportal/docs"
	"studyportal/middleware"
	"studyportal/storage"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRouter 设置路由
// catalogStore 存放资料文件内容，noteStore 存放笔记附件
func SetupRouter(cfg *config.Config, catalogStore, noteStore storage.ObjectStore) *gin.Engine {
	// 设置运行模式
	gin.SetMode(cfg.Server.Mode)

	r := gin.Default()

	// CORS 中间件
	r.Use(CORSMiddleware())

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	adminPolicy := middleware.NewAdminPolicy(cfg)

	// API v1 路由组
	v1 := r.Group("/api/v1")
	{
		// 认证相关路由（无需登录）
		authHandler := api.NewAuthHandler(cfg, adminPolicy)
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", middleware.LoginRateLimit(10, time.Minute), authHandler.Login)

			// 密码重置
			auth.POST("/password/request-reset", authHandler.RequestPasswordReset)
			auth.POST("/password/verify-code", authHandler.VerifyResetCode)
			auth.POST("/password/reset", authHandler.ResetPassword)
		}

		// 消费类别（无需登录）
		ledgerHandler := api.NewLedgerHandler()
		v1.GET("/categories", ledgerHandler.GetCategories)

		// 需要 JWT 认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			// 用户相关
			authorized.GET("/auth/profile", authHandler.GetProfile)
			authorized.PUT("/auth/password", authHandler.ChangePassword)

			// 记账相关
			transactions := authorized.Group("/transactions")
			{
				transactions.POST("", ledgerHandler.CreateTransaction)
				transactions.GET("", ledgerHandler.ListTransactions)
				transactions.DELETE("/:id", ledgerHandler.DeleteTransaction)
			}
			authorized.GET("/budget", ledgerHandler.GetBudget)
			authorized.PUT("/budget", ledgerHandler.SetBudget)
			authorized.GET("/totals", ledgerHandler.GetTotals)

			// 笔记相关
			notesHandler := api.NewNotesHandler(noteStore)
			notes := authorized.Group("/notes")
			{
				notes.POST("", notesHandler.CreateTextNote)
				notes.POST("/file", notesHandler.CreateFileNote)
				notes.GET("", notesHandler.ListNotes)
				notes.GET("/:id/download", notesHandler.DownloadNote)
				notes.DELETE("/:id", notesHandler.DeleteNote)
			}

			// 资料目录相关
			catalogHandler := api.NewCatalogHandler(catalogStore)
			files := authorized.Group("/files")
			{
				files.GET("/:category", catalogHandler.ListFiles)
				files.GET("/:category/download/:id", catalogHandler.DownloadFile)

				// 上传仅限管理员
				files.POST("/:category", middleware.AdminOnly(adminPolicy), catalogHandler.UploadFiles)
			}

			// 导出相关
			exportHandler := api.NewExportHandler()
			export := authorized.Group("/export")
			{
				export.GET("/csv", exportHandler.ExportCSV)
				export.GET("/json", exportHandler.ExportJSON)
				export.GET("/excel", exportHandler.ExportExcel)
			}

			// 支持反馈
			supportHandler := api.NewSupportHandler(cfg)
			authorized.POST("/support", supportHandler.SendMessage)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
