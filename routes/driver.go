package routes

import (
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"

	"taxiye-driver-server/drivers"
	"taxiye-driver-server/models"
	"taxiye-driver-server/session"
	"taxiye-driver-server/storage"
	"taxiye-driver-server/utils"
)

func RegisterDriver(ctx iris.Context) {
	var input RegisterDriverInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.ValidatePhoneNumber(input.Phone) {
		utils.CreateError(iris.StatusBadRequest, "Invalid Phone", "Enter a valid Ethiopian phone number.", ctx)
		return
	}

	sess, authErr := authAdapter.SignUp(ctx.Request().Context(), input.Phone, input.Password, input.Name, input.Email)
	if authErr != nil {
		if authErr.Kind == session.ErrDuplicateAccount {
			utils.CreatePhoneAlreadyRegistered(ctx)
			return
		}
		respondAuthError(ctx, authErr)
		return
	}

	driver, err := driverRepo.FetchByUserID(ctx.Request().Context(), sess.User.ID)
	if err != nil && err != drivers.ErrTimeout {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"driver":       driver,
	})
}

func LoginDriver(ctx iris.Context) {
	var input LoginDriverInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	sess, authErr := authAdapter.SignIn(ctx.Request().Context(), input.Phone, input.Password)
	if authErr != nil {
		respondAuthError(ctx, authErr)
		return
	}

	driver, err := driverRepo.FetchByUserID(ctx.Request().Context(), sess.User.ID)
	if err != nil && err != drivers.ErrTimeout {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"accessToken":  sess.AccessToken,
		"refreshToken": sess.RefreshToken,
		"driver":       driver,
	})
}

func SendOTP(ctx iris.Context) {
	var input SendOTPInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !utils.ValidatePhoneNumber(input.Phone) {
		utils.CreateError(iris.StatusBadRequest, "Invalid Phone", "Enter a valid Ethiopian phone number.", ctx)
		return
	}

	if _, err := authAdapter.SendOTP(ctx.Request().Context(), input.Phone, input.Email); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"sent": true})
}

func VerifyOTP(ctx iris.Context) {
	var input VerifyOTPInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !authAdapter.VerifyOTP(ctx.Request().Context(), input.Phone, input.Code) {
		utils.CreateError(iris.StatusUnauthorized, "Invalid Code", "The code is wrong or has expired. Request a new one.", ctx)
		return
	}

	ctx.JSON(iris.Map{"verified": true})
}

func ForgotPassword(ctx iris.Context) {
	var input ForgotPasswordInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	identifier := utils.DriverIdentifier(input.Phone)
	if authErr := authAdapter.ResetPassword(ctx.Request().Context(), identifier); authErr != nil {
		// Do not reveal whether the account exists.
		if authErr.Kind == session.ErrServer || authErr.Kind == session.ErrNetwork {
			respondAuthError(ctx, authErr)
			return
		}
	}

	ctx.JSON(iris.Map{"sent": true})
}

func ResetPassword(ctx iris.Context) {
	var input ResetPasswordInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	claims := jsonWT.Get(ctx).(*utils.ForgotPasswordToken)

	var account models.AuthUser
	if err := storage.DB.First(&account, claims.ID).Error; err != nil {
		utils.CreateError(iris.StatusUnauthorized, "Expired Link", "This reset link is no longer valid.", ctx)
		return
	}
	if account.Identifier != claims.Identifier {
		utils.CreateError(iris.StatusUnauthorized, "Expired Link", "This reset link is no longer valid.", ctx)
		return
	}

	if authErr := authAdapter.UpdatePassword(ctx.Request().Context(), account.UserID, input.Password); authErr != nil {
		respondAuthError(ctx, authErr)
		return
	}

	ctx.JSON(iris.Map{"updated": true})
}

func GetDriverProfile(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}
	ctx.JSON(driver)
}

func UpdateDriverProfile(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var input map[string]any
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	fields := map[string]any{}
	for column, value := range input {
		if drivers.PatchableFields[column] {
			fields[column] = value
		}
	}
	if len(fields) == 0 {
		utils.CreateError(iris.StatusBadRequest, "Nothing To Update", "None of the submitted fields can be changed here.", ctx)
		return
	}

	updated, err := driverRepo.Patch(ctx.Request().Context(), driver.Phone, fields)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if updated == nil {
		utils.CreateNotFound(ctx)
		return
	}

	ctx.JSON(updated)
}

func ToggleOnline(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	if driver.ApprovedStatus != models.ApprovalApproved {
		utils.CreateError(iris.StatusForbidden, "Not Approved", "Your account must be approved before going online.", ctx)
		return
	}

	updated, err := driverRepo.Patch(ctx.Request().Context(), driver.Phone, map[string]any{
		"is_online": !driver.IsOnline,
	})
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"isOnline": updated.IsOnline})
}

// respondAuthError maps the adapter's error taxonomy onto HTTP statuses the
// app can switch on.
func respondAuthError(ctx iris.Context, authErr *session.AuthError) {
	status := iris.StatusInternalServerError
	switch authErr.Kind {
	case session.ErrInvalidCredentials, session.ErrExpiredLink, session.ErrExpiredSession, session.ErrUnconfirmedEmail:
		status = iris.StatusUnauthorized
	case session.ErrDuplicateAccount:
		status = iris.StatusConflict
	case session.ErrWeakPassword:
		status = iris.StatusBadRequest
	case session.ErrRateLimited:
		status = iris.StatusTooManyRequests
	case session.ErrNetwork:
		status = iris.StatusBadGateway
	}
	utils.CreateError(status, authErr.Title, authErr.Description, ctx)
}

type RegisterDriverInput struct {
	Name     string `json:"name" validate:"required,max=256"`
	Phone    string `json:"phone" validate:"required,max=20"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=6,max=256"`
}

type LoginDriverInput struct {
	Phone    string `json:"phone" validate:"required,max=20"`
	Password string `json:"password" validate:"required"`
}

type SendOTPInput struct {
	Phone string `json:"phone" validate:"required,max=20"`
	Email string `json:"email" validate:"omitempty,email"`
}

type VerifyOTPInput struct {
	Phone string `json:"phone" validate:"required,max=20"`
	Code  string `json:"code" validate:"required,len=4"`
}

type ForgotPasswordInput struct {
	Phone string `json:"phone" validate:"required,max=20"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=6,max=256"`
}
