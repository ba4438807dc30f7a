package routes

import (
	"errors"
	"strings"
	"time"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
)

var (
	errPromoNotFound    = errors.New("promo code not found")
	errPromoExpired     = errors.New("promo code expired")
	errPromoExhausted   = errors.New("promo code usage limit reached")
	errPromoAlreadyUsed = errors.New("promo code already redeemed")
)

// RedeemPromo performs the whole redemption as one database transaction:
// lock the code row, check eligibility, insert the redemption, bump the
// usage counter and credit the wallet. Any failure rolls the whole thing
// back, so a code can never be consumed without the credit landing.
func RedeemPromo(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var input RedeemPromoInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))

	var redemption *models.WalletTransaction
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		var promo models.PromoCode
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("code = ? AND is_active = true", code).
			First(&promo).Error
		if err == gorm.ErrRecordNotFound {
			return errPromoNotFound
		}
		if err != nil {
			return err
		}

		if promo.ExpiresAt != nil && promo.ExpiresAt.Before(time.Now()) {
			return errPromoExpired
		}
		if promo.UsageLimit > 0 && promo.UsageCount >= promo.UsageLimit {
			return errPromoExhausted
		}

		var used int64
		if err := tx.Model(&models.PromoRedemption{}).
			Where("promo_code_id = ? AND driver_phone_ref = ?", promo.ID, driver.Phone).
			Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return errPromoAlreadyUsed
		}

		if err := tx.Create(&models.PromoRedemption{
			PromoCodeID:    promo.ID,
			DriverPhoneRef: driver.Phone,
			Amount:         promo.Amount,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&promo).Update("usage_count", gorm.Expr("usage_count + 1")).Error; err != nil {
			return err
		}

		redemption, err = walletSvc.ApplyTx(tx, driver.Phone, promo.Amount,
			models.WalletTxPromoCredit, promo.Code, "Promo code credit")
		return err
	})

	switch txErr {
	case nil:
	case errPromoNotFound:
		utils.CreateError(iris.StatusNotFound, "Invalid Code", "This promo code does not exist or is no longer active.", ctx)
		return
	case errPromoExpired:
		utils.CreateError(iris.StatusUnprocessableEntity, "Expired Code", "This promo code has expired.", ctx)
		return
	case errPromoExhausted:
		utils.CreateError(iris.StatusUnprocessableEntity, "Code Exhausted", "This promo code has reached its usage limit.", ctx)
		return
	case errPromoAlreadyUsed:
		utils.CreateError(iris.StatusConflict, "Already Redeemed", "You have already redeemed this promo code.", ctx)
		return
	default:
		utils.CreateInternalServerError(ctx)
		return
	}

	notifier.NotifyWalletCredit(driver.Phone, redemption.Amount, redemption.ID)

	ctx.JSON(redemption)
}

func ListPromoRedemptions(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var redemptions []models.PromoRedemption
	if err := storage.DB.Where("driver_phone_ref = ?", driver.Phone).
		Order("created_at DESC").Find(&redemptions).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(redemptions)
}

type RedeemPromoInput struct {
	Code string `json:"code" validate:"required,max=32"`
}
