package router

import (
	"testhub/internal/casegen"
	"testhub/internal/config"
	"testhub/internal/handler"
	"testhub/internal/middleware"
	"testhub/internal/repository"
	"testhub/internal/service"
	"testhub/internal/utils"
	"testhub/pkg/modelcaller"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRouter 设置路由
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) *gin.Engine {
	// 设置Gin模式
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// 全局中间件
	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(cfg))

	// 健康检查
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "测试用例管理平台 API",
			"version": "1.0.0",
		})
	})

	// 初始化Repository
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	suiteRepo := repository.NewTestSuiteRepository(db)
	caseRepo := repository.NewTestCaseRepository(db)
	taskRepo := repository.NewGenerationTaskRepository(db)
	caseStore := repository.NewCaseStore(suiteRepo, caseRepo)

	// 初始化Service
	authService := service.NewAuthService(userRepo, jwtManager, cfg)
	modelClient := modelcaller.NewClient(modelcaller.Options{
		BaseURL:        cfg.AI.BaseURL,
		APIKey:         cfg.AI.APIKey,
		Model:          cfg.AI.Model,
		SystemPrompt:   casegen.SystemPrompt,
		Temperature:    cfg.AI.Temperature,
		MaxTokens:      cfg.AI.MaxTokens,
		Timeout:        cfg.AI.GetTimeout(),
		RetryCount:     cfg.AI.RetryCount,
		RetryBaseDelay: cfg.AI.GetRetryBaseDelay(),
	})
	genService := service.NewGenerationService(caseStore, modelClient, logger)
	taskManager := service.NewGenerationTaskManager(genService, taskRepo, redisClient, cfg, logger)

	// 初始化Handler
	authHandler := handler.NewAuthHandler(authService)
	projectHandler := handler.NewProjectHandler(projectRepo)
	suiteHandler := handler.NewTestSuiteHandler(suiteRepo, caseRepo)
	caseHandler := handler.NewTestCaseHandler(caseRepo, suiteRepo)
	generateHandler := handler.NewGenerateHandler(genService, logger)
	taskHandler := handler.NewTaskHandler(taskManager, logger)
	adminHandler := handler.NewAdminHandler(userRepo, taskRepo)

	// API路由组
	api := r.Group("/api")
	{
		// 公开路由
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 认证路由
		authorized := api.Group("")
		authorized.Use(middleware.AuthMiddleware(jwtManager))
		{
			// 用户信息
			authorized.GET("/me", authHandler.GetMe)
			authorized.POST("/logout", authHandler.Logout)

			// 项目、迭代、需求
			authorized.GET("/projects", projectHandler.ListProjects)
			authorized.POST("/projects", projectHandler.CreateProject)
			authorized.GET("/projects/:id", projectHandler.GetProject)
			authorized.GET("/projects/:id/iterations", projectHandler.ListIterations)
			authorized.POST("/iterations", projectHandler.CreateIteration)
			authorized.GET("/iterations/:id/requirements", projectHandler.ListRequirements)
			authorized.POST("/requirements", projectHandler.CreateRequirement)

			// 测试套件
			authorized.GET("/test_suites/tree", suiteHandler.GetSuiteTree)
			authorized.GET("/test_suites/:id", suiteHandler.GetSuite)
			authorized.POST("/test_suites", suiteHandler.CreateSuite)
			authorized.DELETE("/test_suites/:id", suiteHandler.DeleteSuite)

			// 测试用例
			authorized.GET("/test_suites/:id/cases", caseHandler.ListCases)
			authorized.POST("/test_cases", caseHandler.CreateCase)
			authorized.GET("/test_cases/:id", caseHandler.GetCase)
			authorized.DELETE("/test_cases/:id", caseHandler.DeleteCase)

			// AI生成用例：同步生成+确认保存
			authorized.POST("/ai/generate", generateHandler.Generate)
			authorized.POST("/ai/save_cases", generateHandler.SaveCases)

			// AI生成任务：后台任务+SSE进度
			authorized.POST("/ai/tasks", taskHandler.StartTask)
			authorized.GET("/ai/tasks", taskHandler.ListTasks)
			authorized.GET("/ai/tasks/:task_id/progress", taskHandler.GetProgress)
			authorized.GET("/ai/tasks/:task_id/status", taskHandler.GetTaskStatus)
			authorized.POST("/ai/tasks/:task_id/stop", taskHandler.StopTask)
			authorized.DELETE("/ai/tasks/:task_id", taskHandler.DeleteTask)

			// 管理端
			admin := authorized.Group("/admin")
			admin.Use(middleware.AdminMiddleware())
			{
				admin.GET("/users", adminHandler.ListUsers)
				admin.DELETE("/users/:id", adminHandler.DeleteUser)
				admin.GET("/tasks", adminHandler.ListAllTasks)
			}
		}
	}

	return r
}
