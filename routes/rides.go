package routes

import (
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
)

// driverShare is the fraction of the fare credited to the driver; the rest
// is the platform commission.
const driverShare = 0.85

func ListAvailableRides(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	if driver.ApprovedStatus != models.ApprovalApproved {
		utils.CreateError(iris.StatusForbidden, "Not Approved", "Your account must be approved before accepting rides.", ctx)
		return
	}

	var rides []models.Ride
	if err := storage.DB.Where("status = ? AND driver_phone_ref = ''", models.RideRequested).
		Order("created_at ASC").Limit(20).Find(&rides).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(rides)
}

func ListDriverRides(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("perPage", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	query := storage.DB.Model(&models.Ride{}).Where("driver_phone_ref = ?", driver.Phone)
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var rides []models.Ride
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&rides).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, rides, page, perPage, total)
}

// AcceptRide claims a requested ride for the authenticated driver. The row
// lock keeps two drivers from claiming the same ride.
func AcceptRide(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	if driver.ApprovedStatus != models.ApprovalApproved {
		utils.CreateError(iris.StatusForbidden, "Not Approved", "Your account must be approved before accepting rides.", ctx)
		return
	}

	rideID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid Ride", "The ride id is not valid.", ctx)
		return
	}

	var ride models.Ride
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ride, rideID).Error; err != nil {
			return err
		}
		if ride.Status != models.RideRequested || ride.DriverPhoneRef != "" {
			return fmt.Errorf("ride %d no longer available", ride.ID)
		}
		ride.Status = models.RideAccepted
		ride.DriverPhoneRef = driver.Phone
		return tx.Save(&ride).Error
	})
	if txErr == gorm.ErrRecordNotFound {
		utils.CreateNotFound(ctx)
		return
	}
	if txErr != nil {
		utils.CreateError(iris.StatusConflict, "Ride Unavailable", "This ride was already taken or cancelled.", ctx)
		return
	}

	notifier.NotifyRideUpdate(driver.Phone, ride.ID, ride.Status)

	ctx.JSON(ride)
}

// UpdateRideStatus advances an accepted ride through its lifecycle. A
// completed ride credits the driver's share of the fare to the wallet in the
// same transaction that records the completion.
func UpdateRideStatus(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	rideID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid Ride", "The ride id is not valid.", ctx)
		return
	}

	var input UpdateRideStatusInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	next := models.RideStatus(input.Status)

	var ride models.Ride
	var earnings *models.WalletTransaction
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ride, rideID).Error; err != nil {
			return err
		}
		if ride.DriverPhoneRef != driver.Phone {
			return gorm.ErrRecordNotFound
		}
		if !validRideTransition(ride.Status, next) {
			return fmt.Errorf("cannot move ride from %s to %s", ride.Status, next)
		}

		now := time.Now()
		switch next {
		case models.RideInProgress:
			ride.StartedAt = &now
		case models.RideCompleted:
			ride.CompletedAt = &now
			ride.DriverEarnings = ride.Fare * driverShare
		case models.RideCancelled:
			ride.CancelReason = input.CancelReason
		}
		ride.Status = next
		if err := tx.Save(&ride).Error; err != nil {
			return err
		}

		if next == models.RideCompleted {
			var err error
			earnings, err = walletSvc.ApplyTx(tx, driver.Phone, ride.DriverEarnings,
				models.WalletTxRideEarning, fmt.Sprintf("%d", ride.ID),
				fmt.Sprintf("Earnings for ride #%d", ride.ID))
			return err
		}
		return nil
	})
	if txErr == gorm.ErrRecordNotFound {
		utils.CreateNotFound(ctx)
		return
	}
	if txErr != nil {
		utils.CreateError(iris.StatusUnprocessableEntity, "Invalid Transition", txErr.Error(), ctx)
		return
	}

	notifier.NotifyRideUpdate(driver.Phone, ride.ID, ride.Status)
	if earnings != nil {
		notifier.NotifyWalletCredit(driver.Phone, earnings.Amount, earnings.ID)
	}

	ctx.JSON(ride)
}

var rideTransitions = map[models.RideStatus][]models.RideStatus{
	models.RideAccepted:   {models.RideInProgress, models.RideCancelled},
	models.RideInProgress: {models.RideCompleted, models.RideCancelled},
}

func validRideTransition(from, to models.RideStatus) bool {
	return slices.Contains(rideTransitions[from], to)
}

type UpdateRideStatusInput struct {
	Status       string `json:"status" validate:"required,oneof=in_progress completed cancelled"`
	CancelReason string `json:"cancelReason" validate:"omitempty,max=256"`
}
