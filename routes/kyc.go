package routes

import (
	"encoding/base64"
	"errors"
	"strings"

	"github.com/kataras/iris/v12"

	"taxiye-driver-server/documents"
	"taxiye-driver-server/models"
	"taxiye-driver-server/utils"
	"taxiye-driver-server/verification"
)

func UploadDocument(ctx iris.Context) {
	account, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var input UploadDocumentInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	data, decodeErr := decodeFilePayload(input.Data)
	if decodeErr != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid File", "The file payload is not valid base64.", ctx)
		return
	}

	file := documents.File{
		Name: input.FileName,
		MIME: input.MIME,
		Size: int64(len(data)),
		Data: data,
	}

	url, err := docPipeline.Upload(ctx.Request().Context(), account.UserID, driver.Phone, models.DocumentType(input.Type), file)
	if err != nil {
		var vErr *documents.ValidationError
		switch {
		case errors.As(err, &vErr):
			utils.CreateError(iris.StatusBadRequest, "Invalid File", vErr.Reason, ctx)
		case err == documents.ErrUploadInFlight:
			utils.CreateError(iris.StatusConflict, "Upload In Progress", "An upload for this document is already running.", ctx)
		default:
			utils.CreateError(iris.StatusBadGateway, "Upload Failed", "The file could not be stored. Please retry.", ctx)
		}
		return
	}

	ctx.JSON(iris.Map{
		"url":    url,
		"type":   input.Type,
		"status": documents.StatusUploaded,
	})
}

func ListDocuments(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	docs, err := docRecords.ListByPhone(ctx.Request().Context(), driver.Phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(docs)
}

func GetVerificationStatus(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	missing, err := orchestrator.MissingDocuments(ctx.Request().Context(), driver.Phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	sessions, err := sessionHistory.ListByPhone(ctx.Request().Context(), driver.Phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	labels := make([]string, len(missing))
	for i, spec := range missing {
		labels[i] = spec.Label
	}

	ctx.JSON(iris.Map{
		"approvedStatus":   driver.ApprovedStatus,
		"missingDocuments": labels,
		"sessions":         sessions,
	})
}

func StartAIVerification(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	result, err := orchestrator.RunAIVerification(ctx.Request().Context(), driver)
	if err != nil {
		var missing *verification.MissingDocumentsError
		if errors.As(err, &missing) {
			ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
				"title":            "Missing Documents",
				"detail":           "Upload the remaining documents before verification.",
				"missingDocuments": missing.Labels(),
			})
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	notifier.NotifyKYCDecision(driver.Phone, result.AutoApproved, result.SessionID)

	ctx.JSON(result)
}

func SubmitManualReview(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	missing, err := orchestrator.MissingDocuments(ctx.Request().Context(), driver.Phone)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, spec := range missing {
			labels[i] = spec.Label
		}
		ctx.StopWithJSON(iris.StatusBadRequest, iris.Map{
			"title":            "Missing Documents",
			"detail":           "Upload the remaining documents before submitting for review.",
			"missingDocuments": labels,
		})
		return
	}

	if err := orchestrator.SubmitForManualReview(ctx.Request().Context(), driver); err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"submitted": true, "approvedStatus": models.ApprovalPending})
}

// decodeFilePayload accepts both raw base64 and data URLs
// ("data:image/png;base64,....").
func decodeFilePayload(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	return base64.StdEncoding.DecodeString(payload)
}

type UploadDocumentInput struct {
	Type     string `json:"type" validate:"required,oneof=national_id driver_license vehicle_photo ownership selfie profile_photo digital_signature"`
	FileName string `json:"fileName" validate:"required,max=256"`
	MIME     string `json:"mime" validate:"required,max=64"`
	Data     string `json:"data" validate:"required"`
}
