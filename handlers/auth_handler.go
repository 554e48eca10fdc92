package handlers

import (
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/anjiri1684/mixlab_studio/models"
	"github.com/anjiri1684/mixlab_studio/notifications"
	"github.com/anjiri1684/mixlab_studio/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
}

// ValidPassword requires six characters with at least one letter and one digit.
func ValidPassword(p string) bool {
	if len(p) < 6 {
		return false
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

type AuthHandler struct {
	db     *gorm.DB
	otp    *services.OTPService
	mailer notifications.Mailer
	secret []byte
	ttl    time.Duration
}

func NewAuthHandler(db *gorm.DB, otp *services.OTPService, mailer notifications.Mailer, secret string, ttl time.Duration) *AuthHandler {
	return &AuthHandler{db: db, otp: otp, mailer: mailer, secret: []byte(secret), ttl: ttl}
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password_strength"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required,password_strength"`
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Username: u.Username, Email: u.Email, Role: u.Role, CreatedAt: u.CreatedAt}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return services.StoreError("hash password", err)
	}

	user := models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Password: string(hashedPassword),
		Role:     models.RoleStudent,
		IsActive: true,
	}
	if err := h.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return services.ConflictError("email-taken", "Email already exists")
		}
		return services.StoreError("create user", err)
	}

	notifications.SendAsync(h.mailer, user.Username, user.Email, "Welcome to MixLab!", "<h1>Welcome!</h1><p>Your account is ready. Book your first lesson today.</p>")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "User registered successfully", "user": toUserResponse(user)})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	var user models.User
	err := h.db.WithContext(c.UserContext()).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
		}
		return services.StoreError("find user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid email or password")
	}
	if !user.IsActive {
		return services.ForbiddenError("account-disabled", "This account has been disabled")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID.String(),
		"role":    user.Role,
		"exp":     time.Now().Add(h.ttl).Unix(),
	})
	signed, err := token.SignedString(h.secret)
	if err != nil {
		return services.StoreError("sign token", err)
	}

	return c.JSON(fiber.Map{"message": "Login successful", "token": signed, "user": toUserResponse(user)})
}

// ForgotPassword answers the same way whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req ForgotPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	var user models.User
	err := h.db.WithContext(c.UserContext()).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		slog.InfoContext(c.UserContext(), "password reset requested for unknown email")
	case err != nil:
		return services.StoreError("find user", err)
	default:
		code, err := h.otp.Issue(c.UserContext(), user.Email)
		if err != nil {
			return err
		}
		subject, html := notifications.OTPEmail(code, h.otp.TTL())
		notifications.SendAsync(h.mailer, user.Username, user.Email, subject, html)
	}

	return c.JSON(fiber.Map{"message": "If the email is registered, an OTP has been sent"})
}

func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req VerifyOTPRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.otp.Verify(c.UserContext(), req.Email, req.OTP); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "OTP verified"})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return services.StoreError("hash password", err)
	}
	if err := h.otp.Consume(c.UserContext(), req.Email); err != nil {
		return err
	}

	res := h.db.WithContext(c.UserContext()).Model(&models.User{}).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
		Update("password", string(hashedPassword))
	if res.Error != nil {
		return services.StoreError("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return services.NotFoundError("user", "User not found")
	}
	return c.JSON(fiber.Map{"message": "Password reset successful"})
}
