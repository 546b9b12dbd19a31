package userControllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"gorm.io/gorm"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserInput struct {
	Name *string `json:"name"`
}

type AuthResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// POST /auth/register
func Register(db *gorm.DB, tokens *auth.Tokens, isAdminEmail func(string) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}
		name := strings.TrimSpace(req.Name)
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if name == "" {
			middleware.RespondError(c, apperr.InvalidArgument("name is required"))
			return
		}
		if len(req.Password) < auth.MinPasswordLength {
			middleware.RespondError(c, apperr.InvalidArgument("password must be at least 6 characters"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			middleware.RespondError(c, apperr.Internal("failed to hash password", err))
			return
		}
		user := models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleCustomer}
		if isAdminEmail != nil && isAdminEmail(email) {
			user.Role = models.RoleAdmin
		}

		// user and cart are created together so every user has exactly one cart
		err = db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			var taken int64
			if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				return apperr.Conflict("User already exists")
			}
			if err := tx.Create(&user).Error; err != nil {
				if models.IsUniqueViolation(err) {
					return apperr.Conflict("User already exists")
				}
				return err
			}
			return tx.Create(&models.Cart{UserID: user.ID}).Error
		})
		if err != nil {
			var e *apperr.Error
			if !errors.As(err, &e) {
				err = apperr.Internal("failed to register user", err)
			}
			middleware.RespondError(c, err)
			return
		}

		token, err := tokens.Issue(user)
		if err != nil {
			middleware.RespondError(c, apperr.Internal("failed to issue token", err))
			return
		}
		c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
	}
}

// POST /auth/login
func Login(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Invalid input: "+err.Error()))
			return
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).
			Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).
			First(&user).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.RespondError(c, apperr.Internal("failed to fetch user", err))
			return
		}
		if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
			middleware.RespondError(c, apperr.Unauthorized("Invalid credentials"))
			return
		}

		token, err := tokens.Issue(user)
		if err != nil {
			middleware.RespondError(c, apperr.Internal("failed to issue token", err))
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
	}
}

// GET /user
func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", id.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				middleware.RespondError(c, apperr.NotFound("User not found"))
				return
			}
			middleware.RespondError(c, apperr.Internal("failed to fetch user", err))
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// PUT /user
func UpdateUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := middleware.IdentityFrom(c)
		if !ok {
			middleware.RespondError(c, apperr.Unauthorized("Unauthorized"))
			return
		}
		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			middleware.RespondError(c, apperr.InvalidArgument(err.Error()))
			return
		}

		var user models.User
		if err := db.WithContext(c.Request.Context()).First(&user, "id = ?", id.UserID).Error; err != nil {
			middleware.RespondError(c, apperr.NotFound("User not found"))
			return
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				middleware.RespondError(c, apperr.InvalidArgument("name must not be empty"))
				return
			}
			if err := db.WithContext(c.Request.Context()).Model(&user).Update("name", name).Error; err != nil {
				middleware.RespondError(c, apperr.Internal("Failed to update user", err))
				return
			}
		}
		c.JSON(http.StatusOK, user)
	}
}

// GET /admin/users
func GetAllUsers(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		users := []models.User{}
		if err := db.WithContext(c.Request.Context()).
			Select("id", "email", "name", "role", "created_at"). // Select only public fields
			Order("created_at desc").
			Find(&users).Error; err != nil {
			middleware.RespondError(c, apperr.Internal("Failed to fetch users", err))
			return
		}
		c.JSON(http.StatusOK, users)
	}
}
