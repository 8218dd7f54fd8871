package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"backend/internal/config"
	"backend/internal/database"
	"backend/internal/geo"
	"backend/internal/handlers"
	"backend/internal/middleware"
	"backend/internal/notify"
	"backend/internal/realtime"
	"backend/internal/workflow"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureDonationIndexes(db); err != nil {
		log.Printf("⚠️ donation index warning: %v", err)
	}
	if err := database.EnsureRequestIndexes(db); err != nil {
		log.Printf("⚠️ request index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("⚠️ user index warning: %v", err)
	}
	if err := database.EnsureWishlistIndexes(db); err != nil {
		log.Printf("⚠️ wishlist index warning: %v", err)
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if config.AppEnv.PushGatewayURL != "" {
		notifier = notify.NewPushGateway(config.AppEnv.PushGatewayURL, config.AppEnv.PushGatewayKey)
	}

	resolver := geo.NewClient(config.AppEnv.DistanceAPIURL)
	directory := handlers.NewUserDirectory(db)
	engine := workflow.NewEngine(workflow.NewMongoStore(db), notifier)
	subscriber := realtime.NewMongoSubscriber(db)

	r := gin.Default()
	r.Static("/public", "./public")

	r.GET("/donations", handlers.GetDonations(db))
	r.GET("/products", handlers.GetProducts(db))

	user := r.Group("/")
	user.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		user.GET("/me", handlers.GetMe(db))
		user.PUT("/me", handlers.UpdateProfile(db))

		user.GET("/donations/mine", handlers.GetMyDonations(db))
		user.POST("/donations", handlers.CreateDonation(db))
		user.PUT("/donations/:id", handlers.UpdateDonation(db))
		user.DELETE("/donations/:id", handlers.DeleteDonation(db))

		user.GET("/wishlist", handlers.GetWishlist(db))
		user.POST("/wishlist", handlers.AddToWishlist(db))
		user.DELETE("/wishlist/:donationId", handlers.RemoveFromWishlist(db))

		user.POST("/checkout/preview", handlers.PreviewCheckout(db, directory, resolver))
		user.POST("/requests", handlers.CreateRequest(db, directory, resolver, notifier))
		user.GET("/requests", handlers.GetRequests(db))
		user.GET("/requests/:id", handlers.GetRequest(db, engine))
		user.GET("/requests/:id/live", handlers.LiveRequest(db, subscriber))

		user.POST("/requests/:id/approve", handlers.ApproveRequest(db, engine))
		user.POST("/requests/:id/decline", handlers.DeclineRequest(db, engine))
		user.POST("/requests/:id/schedule", handlers.ScheduleDelivery(db, engine))
		user.POST("/requests/:id/delivered", handlers.MarkDelivered(db, engine))
		user.POST("/requests/:id/force-confirm", handlers.ForceConfirmReceipt(db, engine))
		user.POST("/requests/:id/receipt", handlers.ConfirmReceipt(db, engine))
		user.POST("/requests/:id/cancel", handlers.CancelRequest(db, engine))

		user.POST("/seller/register", handlers.RegisterSeller(db))
		user.POST("/products", handlers.CreateProduct(db))
		user.DELETE("/products/:id", handlers.DeleteProduct(db))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(config.AppEnv.JWTSecret))
	{
		admin.GET("/me", func(c *gin.Context) {
			c.JSON(200, gin.H{"ok": true})
		})

		admin.GET("/donations", handlers.GetAllDonations(db))
		admin.PUT("/donations/:id/approve", handlers.ApproveDonationPublication(db))
		admin.GET("/requests", handlers.GetAllRequests(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
