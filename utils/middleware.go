package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// AdminOnlyMiddleware ensures the requester has admin or super_admin role
func AdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*AccessToken)
	role := claims.Role
	if role != "admin" && role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "forbidden", "message": "admin access required"})
		return
	}
	// Ensure userID is available to downstream handlers
	ctx.Values().Set("userID", claims.ID)
	ctx.Next()
}

// AdminGateMiddleware requires the short-lived console unlock token on top
// of the role check. The token arrives in the X-Admin-Token header.
func AdminGateMiddleware(ctx iris.Context) {
	gateToken := ctx.GetHeader("X-Admin-Token")
	if gateToken == "" {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "console_locked", "message": "unlock the admin console first"})
		return
	}
	adminID, err := VerifyAdminGateToken(gateToken)
	if err != nil {
		ctx.StatusCode(iris.StatusForbidden)
		ctx.JSON(iris.Map{"error": "console_locked", "message": "admin console session expired"})
		return
	}
	ctx.Values().Set("adminGateID", adminID)
	ctx.Next()
}
