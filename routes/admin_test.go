package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"taxiye-driver-server/models"
	"taxiye-driver-server/utils"
)

// buildTestApp creates a minimal Iris app with the admin party wiring: JWT
// verifier, role check and the console gate. The handler is a stub so the
// test exercises only the access control chain.
func buildTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Setenv("ADMIN_GATE_SECRET", "testgatesecret")
	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(mockAccessToken) })

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, mockAdminOnlyMiddleware)
	{
		admin.Get("/drivers", func(ctx iris.Context) {
			ctx.JSON(iris.Map{"data": []iris.Map{}})
		})
		admin.Post("/drivers/{id:uint}/approve", utils.AdminGateMiddleware, func(ctx iris.Context) {
			ctx.JSON(iris.Map{"data": iris.Map{}})
		})
	}
	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

type mockAccessToken struct {
	ID   uint
	Role string
}

// mockAdminOnlyMiddleware uses mockAccessToken
func mockAdminOnlyMiddleware(ctx iris.Context) {
	claims := jwt.Get(ctx).(*mockAccessToken)
	if claims.Role != "admin" && claims.Role != "super_admin" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}
	ctx.Next()
}

// signTestToken returns a signed JWT with the given role
func signTestToken(role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(mockAccessToken{ID: 1, Role: role})
	return string(token)
}

func TestAdminDriversRBAC(t *testing.T) {
	app := buildTestApp()

	// No token -> rejected by the verifier
	req := httptest.NewRequest(http.MethodGet, "/api/admin/drivers", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	// Driver role -> 403
	req2 := httptest.NewRequest(http.MethodGet, "/api/admin/drivers", nil)
	req2.Header.Set("Authorization", "Bearer "+signTestToken("driver"))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for driver role, got %d", resp2.Code)
	}

	// Admin role -> 200
	req3 := httptest.NewRequest(http.MethodGet, "/api/admin/drivers", nil)
	req3.Header.Set("Authorization", "Bearer "+signTestToken("admin"))
	resp3 := httptest.NewRecorder()
	app.ServeHTTP(resp3, req3)
	if resp3.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp3.Code)
	}
}

func TestAdminConsoleGate(t *testing.T) {
	app := buildTestApp()

	// Admin role but no gate token -> 403 console_locked
	req := httptest.NewRequest(http.MethodPost, "/api/admin/drivers/1/approve", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken("admin"))
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without gate token, got %d", resp.Code)
	}

	// Garbage gate token -> 403
	req2 := httptest.NewRequest(http.MethodPost, "/api/admin/drivers/1/approve", nil)
	req2.Header.Set("Authorization", "Bearer "+signTestToken("admin"))
	req2.Header.Set("X-Admin-Token", "not-a-token")
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with bad gate token, got %d", resp2.Code)
	}

	// Freshly minted gate token -> 200
	gate, err := utils.CreateAdminGateToken(1)
	if err != nil {
		t.Fatalf("CreateAdminGateToken: %v", err)
	}
	req3 := httptest.NewRequest(http.MethodPost, "/api/admin/drivers/1/approve", nil)
	req3.Header.Set("Authorization", "Bearer "+signTestToken("admin"))
	req3.Header.Set("X-Admin-Token", gate)
	resp3 := httptest.NewRecorder()
	app.ServeHTTP(resp3, req3)
	if resp3.Code != http.StatusOK {
		t.Fatalf("expected 200 with gate token, got %d", resp3.Code)
	}
}

// The review path may only ever touch review columns; a concurrent wallet
// credit or online toggle must never be written back by a decision.
func TestReviewFieldsTouchOnlyReviewColumns(t *testing.T) {
	allowed := map[string]bool{
		"approved_status":  true,
		"reviewed_by":      true,
		"last_reviewed_at": true,
		"admin_notes":      true,
		"rejection_reason": true,
		"is_online":        true,
	}

	input := AdminDecisionInput{Reason: "blurry license photo", Notes: "resubmit"}

	reject := reviewFields(models.ApprovalRejected, input, 7, time.Now())
	for column := range reject {
		if !allowed[column] {
			t.Errorf("rejection writes unexpected column %q", column)
		}
	}
	if reject["rejection_reason"] != "blurry license photo" {
		t.Errorf("rejection_reason = %v", reject["rejection_reason"])
	}
	if online, ok := reject["is_online"]; !ok || online != false {
		t.Error("a rejection must force the driver offline")
	}
	if reject["reviewed_by"] != "admin:7" {
		t.Errorf("reviewed_by = %v", reject["reviewed_by"])
	}

	approve := reviewFields(models.ApprovalApproved, AdminDecisionInput{}, 7, time.Now())
	for column := range approve {
		if !allowed[column] {
			t.Errorf("approval writes unexpected column %q", column)
		}
	}
	if _, ok := approve["wallet_balance"]; ok {
		t.Error("approval must never write wallet_balance")
	}
	if approve["rejection_reason"] != "" {
		t.Error("an approval must clear any earlier rejection reason")
	}
	if _, ok := approve["is_online"]; ok {
		t.Error("an approval must not touch is_online")
	}
}
