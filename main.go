package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"taxiye-driver-server/documents"
	"taxiye-driver-server/drivers"
	"taxiye-driver-server/routes"
	"taxiye-driver-server/services"
	"taxiye-driver-server/session"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
	"taxiye-driver-server/verification"
	"taxiye-driver-server/wallet"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	// Initialize services
	db := storage.InitializeDB()
	storage.InitializeRedis()
	media := storage.NewMediaStore()

	provider := session.NewLocalProvider(db)
	adapter := session.NewAdapter(provider, session.NewRedisOTPStore(storage.Redis))

	repo := drivers.NewRepository(drivers.NewGormStore(db))
	records := documents.NewGormRecordStore(db)
	pipeline := documents.NewPipeline(media, records).WithMaxSize(documents.KYCMaxSize)

	history := verification.NewGormSessionStore(db)
	orchestrator := verification.NewOrchestrator(history, records, repo)

	walletSvc := wallet.NewService(db)
	notifier := services.NewNotificationService()

	routes.Configure(adapter, repo, pipeline, records, orchestrator, history, walletSvc, notifier)

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With, X-Admin-Token")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	resetTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	resetTokenVerifier.WithDefaultBlocklist()
	resetTokenVerifierMiddleware := resetTokenVerifier.Verify(func() interface{} {
		return new(utils.ForgotPasswordToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}

		return tokenInput.RefreshToken
	})

	driver := app.Party("/api/driver")
	{
		driver.Post("/register", routes.RegisterDriver)
		driver.Post("/login", routes.LoginDriver)
		driver.Post("/otp/send", routes.SendOTP)
		driver.Post("/otp/verify", routes.VerifyOTP)
		driver.Post("/forgotpassword", routes.ForgotPassword)
		driver.Post("/resetpassword", resetTokenVerifierMiddleware, routes.ResetPassword)
		driver.Get("/profile", accessTokenVerifierMiddleware, routes.GetDriverProfile)
		driver.Patch("/profile", accessTokenVerifierMiddleware, routes.UpdateDriverProfile)
		driver.Post("/online", accessTokenVerifierMiddleware, routes.ToggleOnline)
		driver.Post("/feedback", accessTokenVerifierMiddleware, routes.CreateFeedback)
	}

	kyc := app.Party("/api/kyc", accessTokenVerifierMiddleware)
	{
		kyc.Post("/documents", routes.UploadDocument)
		kyc.Get("/documents", routes.ListDocuments)
		kyc.Get("/status", routes.GetVerificationStatus)
		kyc.Post("/verify", routes.StartAIVerification)
		kyc.Post("/review", routes.SubmitManualReview)
	}

	walletParty := app.Party("/api/wallet", accessTokenVerifierMiddleware)
	{
		walletParty.Get("/", routes.GetWallet)
		walletParty.Get("/transactions", routes.ListWalletTransactions)
		walletParty.Post("/topup", routes.TopUpWallet)
		walletParty.Post("/withdraw", routes.WithdrawFromWallet)
	}

	rides := app.Party("/api/rides", accessTokenVerifierMiddleware)
	{
		rides.Get("/available", routes.ListAvailableRides)
		rides.Get("/", routes.ListDriverRides)
		rides.Post("/{id:uint}/accept", routes.AcceptRide)
		rides.Patch("/{id:uint}/status", routes.UpdateRideStatus)
	}

	promos := app.Party("/api/promos", accessTokenVerifierMiddleware)
	{
		promos.Post("/redeem", routes.RedeemPromo)
		promos.Get("/redemptions", routes.ListPromoRedemptions)
	}

	notifications := app.Party("/api/notifications", accessTokenVerifierMiddleware)
	{
		notifications.Get("/", routes.ListNotifications)
		notifications.Patch("/{id:uint}/read", routes.MarkNotificationRead)
		notifications.Patch("/read-all", routes.MarkAllNotificationsRead)
	}

	// Admin routes
	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Post("/unlock", routes.AdminUnlock)
		admin.Get("/drivers", routes.AdminListDrivers)
		admin.Get("/drivers/{id:uint}", routes.AdminGetDriver)
		admin.Post("/drivers/{id:uint}/approve", utils.AdminGateMiddleware, routes.AdminApproveDriver)
		admin.Post("/drivers/{id:uint}/reject", utils.AdminGateMiddleware, routes.AdminRejectDriver)
		admin.Get("/sessions", routes.AdminListSessions)
		admin.Post("/promos", utils.AdminGateMiddleware, routes.AdminCreatePromo)
		admin.Get("/feedback", routes.AdminListFeedback)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("🚀 Server starting on %s\n", addr)

	// Start server
	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Server failed: %v", err)
	}
}
