package routes

import (
	"fmt"

	"github.com/kataras/iris/v12"

	"taxiye-driver-server/models"
	"taxiye-driver-server/utils"
	"taxiye-driver-server/wallet"
)

func GetWallet(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	recent, _, err := walletSvc.History(ctx.Request().Context(), driver.Phone, 1, 5)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"balance": driver.WalletBalance,
		"recent":  recent,
	})
}

func ListWalletTransactions(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("perPage", 20)

	txs, total, err := walletSvc.History(ctx.Request().Context(), driver.Phone, page, perPage)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, txs, page, perPage, total)
}

func TopUpWallet(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var input TopUpWalletInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	reference := input.Reference
	if reference == "" {
		reference = utils.GenerateShortToken(8)
	}

	tx, err := walletSvc.Apply(ctx.Request().Context(), driver.Phone, input.Amount,
		models.WalletTxTopUp, reference, "Wallet top-up")
	if err != nil {
		if err == wallet.ErrZeroAmount {
			utils.CreateError(iris.StatusBadRequest, "Invalid Amount", "The top-up amount must be greater than zero.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	notifier.NotifyWalletCredit(driver.Phone, tx.Amount, tx.ID)

	ctx.JSON(tx)
}

func WithdrawFromWallet(ctx iris.Context) {
	_, driver, ok := currentDriver(ctx)
	if !ok {
		return
	}

	var input WithdrawInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	tx, err := walletSvc.Apply(ctx.Request().Context(), driver.Phone, -input.Amount,
		models.WalletTxWithdrawal, input.Reference, fmt.Sprintf("Withdrawal to %s", input.Destination))
	if err != nil {
		switch err {
		case wallet.ErrInsufficientBalance:
			utils.CreateError(iris.StatusUnprocessableEntity, "Insufficient Balance", "Your wallet balance does not cover this withdrawal.", ctx)
		case wallet.ErrZeroAmount:
			utils.CreateError(iris.StatusBadRequest, "Invalid Amount", "The withdrawal amount must be greater than zero.", ctx)
		default:
			utils.CreateInternalServerError(ctx)
		}
		return
	}

	ctx.JSON(tx)
}

type TopUpWalletInput struct {
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reference string  `json:"reference" validate:"omitempty,max=64"`
}

type WithdrawInput struct {
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Destination string  `json:"destination" validate:"required,max=64"`
	Reference   string  `json:"reference" validate:"omitempty,max=64"`
}
