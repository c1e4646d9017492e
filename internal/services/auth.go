package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SwAsTiK-KuL/realtime-voting/internal/apperrors"
	"github.com/SwAsTiK-KuL/realtime-voting/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret []byte
}

func NewAuthService(db *gorm.DB, jwtSecret string) *AuthService {
	return &AuthService{db: db, jwtSecret: []byte(jwtSecret)}
}

func (s *AuthService) Register(name, email, password string) (*models.User, string, error) {
	var existing models.User
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, "", apperrors.Conflict("user with this email already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, "", errors.New("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", errors.New("invalid credentials")
	}

	token, err := s.GenerateToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return &user, token, nil
}

func (s *AuthService) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken resolves an opaque bearer token to the user it identifies.
// Used identically by the HTTP middleware and the socket authenticate
// event; failures stay distinguishable via apperrors sentinels.
func (s *AuthService) VerifyToken(tokenString string) (models.UserInfo, error) {
	if tokenString == "" {
		return models.UserInfo{}, apperrors.ErrNoToken
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.UserInfo{}, apperrors.ErrTokenExpired
		}
		return models.UserInfo{}, apperrors.ErrInvalidToken
	}
	if !token.Valid {
		return models.UserInfo{}, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.UserInfo{}, apperrors.ErrInvalidToken
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return models.UserInfo{}, apperrors.ErrInvalidToken
	}

	var user models.User
	if err := s.db.First(&user, uint(userIDFloat)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.UserInfo{}, apperrors.ErrUserGone
		}
		return models.UserInfo{}, err
	}

	return user.Info(), nil
}

// VerifyBearer extracts the token from an Authorization header value and
// verifies it.
func (s *AuthService) VerifyBearer(header string) (models.UserInfo, error) {
	if header == "" {
		return models.UserInfo{}, apperrors.ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.UserInfo{}, fmt.Errorf("%w: invalid authorization header format", apperrors.ErrInvalidToken)
	}
	return s.VerifyToken(parts[1])
}

// Profile returns the user's identity plus poll and vote counts.
func (s *AuthService) Profile(userID uint) (*models.UserInfo, int64, int64, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, 0, apperrors.NotFound("user not found")
		}
		return nil, 0, 0, err
	}

	var pollCount, voteCount int64
	if err := s.db.Model(&models.Poll{}).Where("creator_id = ?", userID).Count(&pollCount).Error; err != nil {
		return nil, 0, 0, err
	}
	if err := s.db.Model(&models.Vote{}).Where("user_id = ?", userID).Count(&voteCount).Error; err != nil {
		return nil, 0, 0, err
	}

	info := user.Info()
	return &info, pollCount, voteCount, nil
}
