package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/politologod/vibes-marketplace/internal/api/handlers"
	"github.com/politologod/vibes-marketplace/internal/api/middleware"
	"github.com/politologod/vibes-marketplace/internal/config"
	"github.com/politologod/vibes-marketplace/internal/services"
	"github.com/politologod/vibes-marketplace/internal/storage"
)

// SetupRouter configures and returns the main Gin engine. taskClient may be
// nil when no image worker is running.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient *asynq.Client) *gin.Engine {
	userService := services.NewUserService(db)
	authService := services.NewAuthService(db, cfg, userService)
	productService := services.NewProductService(db, cfg, rdb)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatalf("CRITICAL: Failed to initialize S3 storage for API: %v", err)
	}

	r := gin.Default()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)
	r.Use(middleware.CORSMiddleware())
	r.Use(rateLimiter.Limit())

	authHandler := handlers.NewRestAuthHandler(authService)
	productHandler := handlers.NewRestProductHandler(productService)
	userHandler := handlers.NewRestUserHandler(userService)
	uploadHandler := handlers.NewRestUploadHandler(cfg, productService, s3StorageService, taskClient)

	requireAuth := middleware.AuthMiddleware(cfg.JwtSecret, userService)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "pong"})
		})

		authGroup := apiGroup.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/verify", requireAuth, authHandler.Verify)
		}

		productsGroup := apiGroup.Group("/products")
		{
			productsGroup.GET("", productHandler.ListProducts)
			productsGroup.GET("/search", productHandler.SearchProducts)
			productsGroup.GET("/categorias", productHandler.Categories)
			productsGroup.GET("/:id", productHandler.GetProduct)

			productsGroup.POST("", requireAuth, productHandler.CreateProduct)
			productsGroup.PUT("/:id", requireAuth, productHandler.UpdateProduct)
			productsGroup.DELETE("/:id", requireAuth, productHandler.DeleteProduct)
			productsGroup.POST("/:id/images", requireAuth, uploadHandler.UploadImages)
		}

		usersGroup := apiGroup.Group("/users")
		{
			usersGroup.GET("", userHandler.ListUsers)
			usersGroup.GET("/verificar-correo/:correo", userHandler.CheckCorreo)
			usersGroup.GET("/verificar-cedula/:cedula", userHandler.CheckCedula)
			usersGroup.GET("/cedula/:cedula", userHandler.GetUserByCedula)
			usersGroup.GET("/:id", userHandler.GetUser)

			usersGroup.POST("", userHandler.CreateUser)
			usersGroup.PUT("/:id", requireAuth, userHandler.UpdateUser)
			usersGroup.DELETE("/:id", requireAuth, userHandler.DeleteUser)
			usersGroup.PUT("/:id/cuentas-bancarias", requireAuth, userHandler.UpdateBankAccounts)
			usersGroup.PUT("/:id/pago-movil", requireAuth, userHandler.UpdatePagoMovil)
		}
	}

	return r
}
