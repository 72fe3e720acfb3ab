package services

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"

	"courtside/internal/models"
	"courtside/internal/utils"

	"gorm.io/gorm"
)

const minPasswordLength = 6

// AuthService registers and authenticates users. The rest of the services
// only ever see the resulting user id.
type AuthService struct {
	db *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(ctx context.Context, email, username, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.User{}, invalidArgument("invalid_email", "%q is not a valid email address", email)
	}
	if len(password) < minPasswordLength {
		return models.User{}, invalidArgument("weak_password", "password must be at least %d characters", minPasswordLength)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		username = email[:strings.Index(email, "@")]
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return models.User{}, storeError("hash password", err)
	}
	user := models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Avatar:   utils.RandomAvatar(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.User{}, conflict("email_taken", "email %s is already registered", email)
		}
		return models.User{}, storeError("insert user", err)
	}
	return user, nil
}

// Login fails with the same error for an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, storeError("load user", err)
	}
	if err != nil || !utils.CheckPasswordHash(password, user.Password) {
		return models.User{}, unauthorized("invalid_credentials", "invalid email or password")
	}
	return user, nil
}

func (s *AuthService) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, notFound("user_not_found", "user #%d not found", id)
	}
	if err != nil {
		return user, storeError("load user", err)
	}
	return user, nil
}

// loadActor fetches the display fields of the user behind a request for use
// in notification text. A failed lookup degrades to an anonymous actor.
func loadActor(db *gorm.DB, id uint) models.User {
	var user models.User
	if err := db.Select("id", "username", "avatar").Where("id = ?", id).Take(&user).Error; err != nil {
		log.Printf("load actor %d: %v", id, err)
		return models.User{ID: id, Username: "Someone"}
	}
	return user
}
