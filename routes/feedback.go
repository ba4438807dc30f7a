package routes

import (
	"net/http"

	"github.com/kataras/iris/v12"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
)

// POST /api/feedback — create feedback (auth required, must have driver profile)
func CreateFeedback(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var input CreateFeedbackInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	fb := models.Feedback{
		DriverPhoneRef: driver.Phone,
		Title:          input.Title,
		Message:        input.Message,
		Rating:         input.Rating,
		Context:        input.Context,
		AppVersion:     input.AppVersion,
		DeviceInfo:     input.DeviceInfo,
	}
	if err := storage.DB.Create(&fb).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	ctx.JSON(iris.Map{"data": fb})
}

// GET /api/admin/feedback — list feedback (admin)
func AdminListFeedback(ctx iris.Context) {
	var list []models.Feedback
	if err := storage.DB.Order("created_at DESC").Find(&list).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	ctx.JSON(iris.Map{"data": list})
}

type CreateFeedbackInput struct {
	Title      string `json:"title" validate:"omitempty,max=200"`
	Message    string `json:"message" validate:"required"`
	Rating     *int   `json:"rating" validate:"omitempty,min=1,max=5"`
	Context    string `json:"context" validate:"omitempty,max=200"`
	AppVersion string `json:"appVersion" validate:"omitempty,max=50"`
	DeviceInfo string `json:"deviceInfo" validate:"omitempty,max=200"`
}
