package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"os"
	"strconv"
	"time"

	jwtv4 "github.com/golang-jwt/jwt/v4"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"taxiye-driver-server/models"
	"taxiye-driver-server/storage"
)

var bgContext = context.Background()

func CreateForgotPasswordToken(id uint, identifier string) (string, error) {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("EMAIL_TOKEN_SECRET"), 10*time.Minute)

	claims := ForgotPasswordToken{
		ID:         id,
		Identifier: identifier,
	}

	token, err := signer.Sign(claims)
	if err != nil {
		return "", err
	}

	return string(token), nil
}

func CreateTokenPair(id uint) (*jwt.TokenPair, error) {
	accessTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 24*time.Hour)
	refreshTokenSigner := jwt.NewSigner(jwt.HS256, os.Getenv("REFRESH_TOKEN_SECRET"), 365*24*time.Hour)

	userID := strconv.FormatUint(uint64(id), 10)

	refreshClaims := jwt.Claims{Subject: userID}

	// Load role for embedding into the access token
	var account models.AuthUser
	role := "driver"
	if err := storage.DB.Select("id, role").First(&account, id).Error; err == nil && account.Role != "" {
		role = account.Role
	}

	accessTokenClaims := AccessToken{
		ID:   id,
		Role: role,
	}

	accessToken, err := accessTokenSigner.Sign(accessTokenClaims)
	if err != nil {
		return nil, err
	}

	refreshToken, err := refreshTokenSigner.Sign(refreshClaims)
	if err != nil {
		return nil, err
	}

	var tokenPair jwt.TokenPair
	tokenPair.AccessToken = accessToken
	tokenPair.RefreshToken = refreshToken

	storage.Redis.Set(bgContext, string(refreshToken), "true", 365*24*time.Hour+5*time.Minute)

	return &tokenPair, nil
}

func RefreshToken(ctx iris.Context) {
	token := jwt.GetVerifiedToken(ctx)
	tokenStr := string(token.Token)
	validToken, tokenErr := storage.Redis.Get(bgContext, tokenStr).Result()

	if tokenErr != nil {
		CreateNotFound(ctx)
		return
	}

	if validToken != "true" {
		ctx.StatusCode(iris.StatusForbidden)
		return
	}

	storage.Redis.Del(bgContext, tokenStr)
	userID, parseErr := strconv.ParseUint(token.StandardClaims.Subject, 10, 32)
	if parseErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	tokenPair, tokenPairErr := CreateTokenPair(uint(userID))
	if tokenPairErr != nil {
		CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

// CreateAdminGateToken issues the short-lived token that unlocks the admin
// review console. It replaces the old client-side "admin code in local
// storage" flag with something the server can actually verify.
func CreateAdminGateToken(adminID uint) (string, error) {
	claims := jwtv4.MapClaims{
		"sub": strconv.FormatUint(uint64(adminID), 10),
		"aud": "admin-console",
		"exp": time.Now().Add(15 * time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwtv4.NewWithClaims(jwtv4.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("ADMIN_GATE_SECRET")))
}

// VerifyAdminGateToken checks a gate token and returns the admin account id.
func VerifyAdminGateToken(tokenString string) (uint, error) {
	token, err := jwtv4.Parse(tokenString, func(t *jwtv4.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv4.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(os.Getenv("ADMIN_GATE_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return 0, errors.New("invalid admin gate token")
	}
	claims, ok := token.Claims.(jwtv4.MapClaims)
	if !ok {
		return 0, errors.New("invalid admin gate claims")
	}
	if aud, _ := claims["aud"].(string); aud != "admin-console" {
		return 0, errors.New("invalid admin gate audience")
	}
	sub, _ := claims["sub"].(string)
	id, parseErr := strconv.ParseUint(sub, 10, 32)
	if parseErr != nil {
		return 0, errors.New("invalid admin gate subject")
	}
	return uint(id), nil
}

// GenerateShortToken returns a URL-safe random string of the given length (bytes*2 hex).
func GenerateShortToken(n int) string {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return ""
	}
	// hex encoding doubles length; that's fine for uniqueness and safety
	const hex = "0123456789abcdef"
	out := make([]byte, n*2)
	for i, v := range b {
		out[i*2] = hex[v>>4]
		out[i*2+1] = hex[v&0x0f]
	}
	return string(out)
}

type ForgotPasswordToken struct {
	ID         uint   `json:"ID"`
	Identifier string `json:"identifier"`
}

type AccessToken struct {
	ID   uint   `json:"ID"`
	Role string `json:"role"`
}

type RefreshTokenInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
