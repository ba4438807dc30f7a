package routes

import (
	"time"

	"github.com/kataras/iris/v12"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
)

func ListNotifications(ctx iris.Context) {
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

	query := storage.DB.Model(&models.Notification{}).Where("driver_phone_ref = ?", driver.Phone)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var unread int64
	if err := storage.DB.Model(&models.Notification{}).
		Where("driver_phone_ref = ? AND is_read = false", driver.Phone).
		Count(&unread).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&notifications).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"data":    notifications,
		"page":    page,
		"perPage": perPage,
		"total":   total,
		"unread":  unread,
	})
}

func MarkNotificationRead(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid Notification", "The notification id is not valid.", ctx)
		return
	}

	now := time.Now()
	result := storage.DB.Model(&models.Notification{}).
		Where("id = ? AND driver_phone_ref = ?", id, driver.Phone).
		Updates(map[string]any{"is_read": true, "read_at": &now})
	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if result.RowsAffected == 0 {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(iris.Map{"read": true})
}

func MarkAllNotificationsRead(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	now := time.Now()
	if err := storage.DB.Model(&models.Notification{}).
		Where("driver_phone_ref = ? AND is_read = false", driver.Phone).
		Updates(map[string]any{"is_read": true, "read_at": &now}).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"read": true})
}
