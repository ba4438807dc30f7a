package routes

import (
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"

	"taxiye-driver-server/documents"
	"taxiye-driver-server/drivers"
	"taxiye-driver-server/models"
	"taxiye-driver-server/services"
	"taxiye-driver-server/session"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
	"taxiye-driver-server/verification"
	"taxiye-driver-server/wallet"
)

// Package-level collaborators, wired once from main.
var (
	authAdapter    *session.Adapter
	driverRepo     *drivers.Repository
	docPipeline    *documents.Pipeline
	docRecords     documents.RecordStore
	orchestrator   *verification.Orchestrator
	sessionHistory *verification.GormSessionStore
	walletSvc      *wallet.Service
	notifier       *services.NotificationService
)

// Configure wires the route handlers to their collaborators.
func Configure(
	adapter *session.Adapter,
	repo *drivers.Repository,
	pipeline *documents.Pipeline,
	records documents.RecordStore,
	orch *verification.Orchestrator,
	history *verification.GormSessionStore,
	walletService *wallet.Service,
	notificationService *services.NotificationService,
) {
	authAdapter = adapter
	driverRepo = repo
	docPipeline = pipeline
	docRecords = records
	orchestrator = orch
	sessionHistory = history
	walletSvc = walletService
	notifier = notificationService
}

// currentAuthUser resolves the authenticated account from the access token.
func currentAuthUser(ctx iris.Context) (*models.AuthUser, bool) {
	tok := jsonWT.Get(ctx)
	if tok == nil {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return nil, false
	}
	claims, ok := tok.(*utils.AccessToken)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return nil, false
	}

	var account models.AuthUser
	if err := storage.DB.First(&account, claims.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.StopWithStatus(iris.StatusUnauthorized)
		} else {
			utils.CreateInternalServerError(ctx)
		}
		return nil, false
	}
	return &account, true
}

// currentDriver resolves the authenticated account and its driver profile.
func currentDriver(ctx iris.Context) (*models.AuthUser, *models.Driver, bool) {
	account, ok := currentAuthUser(ctx)
	if !ok {
		return nil, nil, false
	}

	driver, err := driverRepo.FetchByUserID(ctx.Request().Context(), account.UserID)
	if err == drivers.ErrTimeout {
		utils.CreateError(iris.StatusGatewayTimeout, "Timeout", "Profile lookup took too long. Please try again.", ctx)
		return nil, nil, false
	}
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return nil, nil, false
	}
	if driver == nil {
		utils.CreateError(iris.StatusNotFound, "No Driver Profile", "No driver profile exists for this account.", ctx)
		return nil, nil, false
	}
	return account, driver, true
}
