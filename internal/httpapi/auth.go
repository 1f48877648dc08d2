package httpapi

import (
	"errors"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"butcherdesk/backend/internal/domain"
)

// ButcherAccount pairs a butcher identity with its bcrypt-hashed API
// secret.
type ButcherAccount struct {
	Butcher    domain.Butcher
	SecretHash string
}

type LoginRequest struct {
	ButcherID string `json:"butcher_id"`
	Secret    string `json:"secret"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	ButcherID   string `json:"butcher_id"`
	Vendor      string `json:"vendor"`
	ExpiresAt   string `json:"expires_at"`
}

type butcherClaims struct {
	jwtlib.RegisteredClaims
	Name   string `json:"name"`
	Vendor string `json:"vendor"`
}

// AuthManager issues and validates the opaque caller-identity tokens the
// order endpoints require.
type AuthManager struct {
	mu       sync.RWMutex
	secret   []byte
	tokenTTL time.Duration
	accounts map[string]ButcherAccount
}

func NewAuthManager(secret string, tokenTTL time.Duration, accounts []ButcherAccount) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	byID := make(map[string]ButcherAccount, len(accounts))
	for _, account := range accounts {
		byID[account.Butcher.ID] = account
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		accounts: byID,
	}
}

func (a *AuthManager) Login(req LoginRequest) (LoginResponse, error) {
	id := strings.TrimSpace(req.ButcherID)
	a.mu.RLock()
	account, ok := a.accounts[id]
	a.mu.RUnlock()
	if !ok {
		return LoginResponse{}, errors.New("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(account.SecretHash), []byte(req.Secret)) != nil {
		return LoginResponse{}, errors.New("invalid credentials")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(account.Butcher, expiresAt)
	if err != nil {
		return LoginResponse{}, err
	}
	return LoginResponse{
		AccessToken: token,
		ButcherID:   account.Butcher.ID,
		Vendor:      string(account.Butcher.Vendor),
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Butcher, error) {
	claims := &butcherClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Butcher{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Butcher{}, errors.New("invalid token subject")
	}
	return domain.Butcher{
		ID:     sub,
		Name:   claims.Name,
		Vendor: domain.VendorType(claims.Vendor),
	}, nil
}

func (a *AuthManager) sign(butcher domain.Butcher, expiresAt time.Time) (string, error) {
	claims := butcherClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   butcher.ID,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "butcherdesk",
		},
		Name:   butcher.Name,
		Vendor: string(butcher.Vendor),
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// HashSecret is used at startup to hash seeded butcher secrets.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}
