package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/notify"
	"backend/internal/paystack"
	"backend/internal/store"
)

func main() {
	cfg := config.Load()

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}
	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureAdminIndexes(db); err != nil {
		log.Printf("admin index warning: %v", err)
	}

	orders := store.NewOrderStore(db)
	verifier := paystack.New(cfg.PaystackSecretKey)
	if !verifier.Configured() {
		log.Println("PAYSTACK_SECRET not set: payment verification will fail until configured")
	}

	notifier := notify.New(cfg)
	notifier.Start()
	defer notifier.Close()

	r := gin.Default()

	r.GET("/health", handlers.Health(db))

	r.GET("/products", handlers.GetProducts(db))
	r.GET("/products/:id", handlers.GetProduct(db))
	r.GET("/categories", handlers.GetCategories())

	r.GET("/sitemap.xml", handlers.Sitemap(db, cfg.SiteURL))
	r.GET("/product/:id/preview", handlers.ProductPreview(db, cfg.SiteURL))

	r.POST("/create-order", handlers.CreateOrder(orders, verifier, notifier))
	r.POST("/verify-payment", handlers.VerifyPayment(verifier))
	r.POST("/notify", handlers.Notify(notifier))
	r.POST("/fb-capi", handlers.FacebookCAPI(notifier))

	r.POST("/admin/login", handlers.AdminLogin(db, cfg.JWTSecret, cfg.AccessTokenTTL))

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db))
		admin.PUT("/products/:id", handlers.UpdateProduct(db))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/orders", handlers.GetOrders(db))
		admin.DELETE("/orders/:id", handlers.DeleteOrder(db))
	}

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
