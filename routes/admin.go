package routes

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
)

// AdminUnlock - POST /admin/unlock. Exchanges the console unlock code for a
// short-lived signed gate token; the code itself is never held by the client
// beyond this call.
func AdminUnlock(ctx iris.Context) {
	var input AdminUnlockInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	code := os.Getenv("ADMIN_UNLOCK_CODE")
	if code == "" || subtle.ConstantTimeCompare([]byte(input.Code), []byte(code)) != 1 {
		ctx.StopWithJSON(http.StatusForbidden, iris.Map{"error": "invalid_code", "message": "wrong unlock code"})
		return
	}

	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	gateToken, err := utils.CreateAdminGateToken(claims.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"gateToken": gateToken})
}

// AdminListDrivers - GET /admin/drivers?status=&q=&page=&per_page=
func AdminListDrivers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	var list []models.Driver
	q := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	status := strings.TrimSpace(ctx.URLParamDefault("status", ""))

	query := storage.DB.Model(&models.Driver{})
	if status != "" {
		query = query.Where("approved_status = ?", status)
	}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(name) LIKE ? OR phone LIKE ? OR lower(plate_number) LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)
	query = query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage)
	if err := query.Find(&list).Error; err != nil {
		ctx.StatusCode(http.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "server_error", "message": err.Error()})
		return
	}

	ctx.JSON(iris.Map{
		"data": list,
		"meta": iris.Map{"page": page, "per_page": perPage, "total": total},
	})
}

// AdminGetDriver - GET /admin/drivers/:id with documents and verification
// history for the review screen.
func AdminGetDriver(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var driver models.Driver
	if err := storage.DB.First(&driver, id).Error; err != nil {
		ctx.StopWithJSON(http.StatusNotFound, iris.Map{"error": "not_found"})
		return
	}

	docs, err := docRecords.ListByPhone(ctx.Request().Context(), driver.Phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	sessions, err := sessionHistory.ListByPhone(ctx.Request().Context(), driver.Phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"data":      driver,
		"documents": docs,
		"sessions":  sessions,
	})
}

// AdminApproveDriver - POST /admin/drivers/:id/approve
func AdminApproveDriver(ctx iris.Context) {
	decideDriver(ctx, models.ApprovalApproved)
}

// AdminRejectDriver - POST /admin/drivers/:id/reject
func AdminRejectDriver(ctx iris.Context) {
	decideDriver(ctx, models.ApprovalRejected)
}

func decideDriver(ctx iris.Context, status models.ApprovalStatus) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var input AdminDecisionInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if status == models.ApprovalRejected && strings.TrimSpace(input.Reason) == "" {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "reason_required", "message": "a rejection needs a reason"})
		return
	}

	claims := jsonWT.Get(ctx).(*utils.AccessToken)
	fields := reviewFields(status, input, claims.ID, time.Now())

	// Touch review columns only, under a row lock: wallet credits or an
	// online toggle landing mid-request must not be written back stale.
	var before, driver models.Driver
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&driver, id).Error; err != nil {
			return err
		}
		before = driver
		return tx.Model(&driver).Updates(fields).Error
	})
	if txErr == gorm.ErrRecordNotFound {
		ctx.StopWithJSON(http.StatusNotFound, iris.Map{"error": "not_found"})
		return
	}
	if txErr != nil {
		ctx.StopWithJSON(http.StatusInternalServerError, iris.Map{"error": "server_error"})
		return
	}

	utils.Audit(ctx, "driver."+string(status), "driver", fmt.Sprintf("%d", driver.ID), before, driver)
	notifier.NotifyAdminDecision(driver.Phone, status, input.Reason)

	ctx.JSON(iris.Map{"data": driver})
}

// reviewFields builds the column set an admin decision may touch. Nothing
// outside this set (in particular wallet_balance) is ever written by the
// review path.
func reviewFields(status models.ApprovalStatus, input AdminDecisionInput, adminID uint, now time.Time) map[string]any {
	fields := map[string]any{
		"approved_status":  status,
		"reviewed_by":      fmt.Sprintf("admin:%d", adminID),
		"last_reviewed_at": &now,
		"admin_notes":      input.Notes,
		"rejection_reason": "",
	}
	if status == models.ApprovalRejected {
		fields["rejection_reason"] = input.Reason
		fields["is_online"] = false
	}
	return fields
}

// AdminListSessions - GET /admin/sessions?phone=
func AdminListSessions(ctx iris.Context) {
	phone := strings.TrimSpace(ctx.URLParamDefault("phone", ""))

	query := storage.DB.Model(&models.VerificationSession{})
	if phone != "" {
		query = query.Where("driver_phone_ref = ?", utils.NormalizePhoneNumber(phone))
	}

	var sessions []models.VerificationSession
	if err := query.Order("created_at DESC").Limit(100).Find(&sessions).Error; err != nil {
		ctx.StatusCode(http.StatusInternalServerError)
		ctx.JSON(iris.Map{"error": "server_error", "message": err.Error()})
		return
	}

	ctx.JSON(iris.Map{"data": sessions})
}

// AdminCreatePromo - POST /admin/promos
func AdminCreatePromo(ctx iris.Context) {
	var input AdminCreatePromoInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	promo := models.PromoCode{
		Code:       strings.ToUpper(strings.TrimSpace(input.Code)),
		Amount:     input.Amount,
		UsageLimit: input.UsageLimit,
		ExpiresAt:  input.ExpiresAt,
		IsActive:   true,
	}
	if err := storage.DB.Create(&promo).Error; err != nil {
		ctx.StopWithJSON(http.StatusConflict, iris.Map{"error": "duplicate_code", "message": "a promo with this code already exists"})
		return
	}

	utils.Audit(ctx, "promo.create", "promo_code", fmt.Sprintf("%d", promo.ID), nil, promo)

	ctx.JSON(iris.Map{"data": promo})
}

type AdminUnlockInput struct {
	Code string `json:"code" validate:"required,max=64"`
}

type AdminDecisionInput struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
	Notes  string `json:"notes" validate:"omitempty,max=1000"`
}

type AdminCreatePromoInput struct {
	Code       string     `json:"code" validate:"required,min=3,max=32"`
	Amount     float64    `json:"amount" validate:"required,gt=0"`
	UsageLimit int        `json:"usageLimit" validate:"gte=0"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}
