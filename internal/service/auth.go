package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLength = 8

// maxPasswordBytes is the most bcrypt will hash.
const maxPasswordBytes = 72

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

	commonPasswords = map[string]struct{}{
		"password": {}, "password1": {}, "12345678": {}, "123456789": {},
		"qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "11111111": {},
	}
)

type AuthService struct {
	db         *gorm.DB
	tokens     TokenStore
	jwtSecret  []byte
	tokenTTL   time.Duration
	bcryptCost int
}

type AuthOption func(*AuthService)

// WithPasswordCost overrides the bcrypt cost, mostly for tests.
func WithPasswordCost(cost int) AuthOption {
	return func(s *AuthService) { s.bcryptCost = cost }
}

// NewAuthService builds the auth service. tokens may be nil, in which case
// logout cannot revoke tokens.
func NewAuthService(db *gorm.DB, tokens TokenStore, jwtSecret string, tokenTTL time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		db:         db,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		tokenTTL:   tokenTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidUsername reports whether name is an acceptable username.
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name) && !strings.EqualFold(name, "me")
}

func validatePassword(field, password string, verr *ValidationError) {
	if len([]rune(password)) < minPasswordLength {
		verr.Add(field, "This password is too short. It must contain at least %d characters.", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		verr.Add(field, "This password is too long. It must not exceed %d bytes.", maxPasswordBytes)
	}
	if _, err := strconv.Atoi(password); err == nil {
		verr.Add(field, "This password is entirely numeric.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		verr.Add(field, "This password is too common.")
	}
}

func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	return s.createUser(ctx, req, false)
}

// CreateSuperuser registers a staff account.
func (s *AuthService) CreateSuperuser(ctx context.Context, req types.RegisterRequest) (*models.User, error) {
	return s.createUser(ctx, req, true)
}

func (s *AuthService) createUser(ctx context.Context, req types.RegisterRequest, staff bool) (*models.User, error) {
	email := NormalizeEmail(req.Email)
	verr := &ValidationError{}
	if !ValidUsername(req.Username) {
		verr.Add("username", "Enter a valid username.")
	}
	validatePassword("password", req.Password, verr)

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		verr.Add("username", "A user with that username already exists.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		IsStaff:      staff,
	}
	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("", "A user with that email or username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logging.Ctx(ctx).Info().Uint("user_id", user.ID).Bool("staff", staff).Msg("user registered")
	return user, nil
}

// Login checks credentials and issues a token. Email matching is
// case-insensitive.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrBadCredentials
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrBadCredentials
	}

	return s.IssueToken(&user)
}

// IssueToken signs a fresh token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: user.ID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses a token and rejects revoked ones.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid || claims.UserID == 0 || claims.ID == "" {
		return nil, ErrInvalidToken
	}

	if s.tokens != nil {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, ErrInvalidToken
		}
	}
	return claims, nil
}

// Authenticate resolves a token to the request principal.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*types.Principal, error) {
	claims, err := s.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.WithContext(ctx).Select("id", "is_staff").First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return &types.Principal{UserID: user.ID, IsStaff: user.IsStaff, TokenID: claims.ID}, nil
}

// Logout revokes the token the principal authenticated with.
func (s *AuthService) Logout(ctx context.Context, p *types.Principal) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if s.tokens == nil || p.TokenID == "" {
		return nil
	}
	return s.tokens.Revoke(ctx, p.TokenID, s.tokenTTL)
}

func (s *AuthService) SetPassword(ctx context.Context, p *types.Principal, req types.SetPasswordRequest) error {
	if !p.IsAuthenticated() {
		return ErrUnauthenticated
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, p.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	verr := &ValidationError{}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		verr.Add("current_password", "Invalid password.")
	}
	validatePassword("new_password", req.NewPassword, verr)
	if err := verr.OrNil(); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&user).Update("password_hash", string(hash)).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
