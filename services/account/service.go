package account

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/junaidrashid-git/technoworld-api/apperror"
	"github.com/junaidrashid-git/technoworld-api/models"
)

type Service struct {
	db     *gorm.DB
	tokens *Tokens
	log    *zap.Logger
	cost   int

	// AllowAdminSignup lets registration request the ADMIN role.
	AllowAdminSignup bool
}

func NewService(db *gorm.DB, tokens *Tokens, log *zap.Logger) *Service {
	return &Service{db: db, tokens: tokens, log: log.Named("account"), cost: bcrypt.DefaultCost}
}

func (s *Service) Tokens() *Tokens {
	return s.tokens
}

type Registration struct {
	Name     string `json:"userName"`
	Email    string `json:"userEmail"`
	Password string `json:"userPassword"`
	Role     string `json:"roleUser"`
}

type Credentials struct {
	Email    string `json:"userEmail"`
	Password string `json:"userPassword"`
}

// ProfileUpdate carries optional fields; nil or empty leaves the value alone.
type ProfileUpdate struct {
	Name     *string `json:"userName"`
	Email    *string `json:"userEmail"`
	FullName *string `json:"userFio"`
	Address  *string `json:"userAddress"`
	Phone    *string `json:"userPhone"`
}

func validateCredentials(op, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return apperror.InvalidInput(op, "email is required")
	}
	if password == "" {
		return apperror.InvalidInput(op, "password is required")
	}
	if !ValidEmail(email) {
		return apperror.InvalidInput(op, "email is not valid")
	}
	if !ValidPassword(password) {
		return apperror.InvalidInput(op, PasswordPolicy)
	}
	return nil
}

// Register creates the user together with its cart and returns a token.
func (s *Service) Register(ctx context.Context, in Registration) (string, error) {
	const op = "account.Register"
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return "", apperror.InvalidInput(op, "user name is required")
	}
	if err := validateCredentials(op, in.Email, in.Password); err != nil {
		return "", err
	}
	role := strings.ToUpper(strings.TrimSpace(in.Role))
	switch role {
	case "":
		role = models.RoleUser
	case models.RoleUser:
	case models.RoleAdmin:
		if !s.AllowAdminSignup {
			return "", apperror.Forbidden(op, "admin accounts cannot be self registered")
		}
	default:
		return "", apperror.InvalidInput(op, "unknown role %q", in.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return "", apperror.Internal(op, err)
	}

	user := models.User{Name: in.Name, Email: in.Email, PasswordHash: string(hash), Role: role}
	var cart models.Cart
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := unique(tx, op, "name", in.Name, 0, "a user with this name already exists"); err != nil {
			return err
		}
		if err := unique(tx, op, "email", in.Email, 0, "a user with this email already exists"); err != nil {
			return err
		}
		if err := tx.Omit("Cart", "Orders").Create(&user).Error; err != nil {
			return apperror.Internal(op, err)
		}
		cart = models.Cart{UserID: user.ID}
		if err := tx.Create(&cart).Error; err != nil {
			return apperror.Internal(op, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", role))
	return s.issue(op, &user, cart.ID)
}

// Login checks credentials. Unknown email and wrong password are both
// reported as invalid input.
func (s *Service) Login(ctx context.Context, in Credentials) (string, error) {
	const op = "account.Login"
	in.Email = strings.TrimSpace(in.Email)
	if err := validateCredentials(op, in.Email, in.Password); err != nil {
		return "", err
	}

	db := s.db.WithContext(ctx)
	var user models.User
	if err := db.Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperror.InvalidInput(op, "no user with this email")
		}
		return "", apperror.Internal(op, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return "", apperror.InvalidInput(op, "wrong password")
	}

	cartID, err := cartOf(db, op, user.ID)
	if err != nil {
		return "", err
	}
	return s.issue(op, &user, cartID)
}

// Check re-issues a token for an already authenticated caller.
func (s *Service) Check(claims *Claims) (string, error) {
	if claims == nil {
		return "", apperror.Unauthorized("account.Check", "not authorized")
	}
	fresh := *claims
	token, err := s.tokens.Issue(fresh)
	if err != nil {
		return "", apperror.Internal("account.Check", err)
	}
	return token, nil
}

// UpdateProfile applies the provided fields and returns a fresh token.
func (s *Service) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (string, error) {
	const op = "account.UpdateProfile"
	if userID == 0 {
		return "", apperror.InvalidInput(op, "invalid user id")
	}
	name, email := trimmed(in.Name), trimmed(in.Email)
	fullName, address, phone := trimmed(in.FullName), trimmed(in.Address), trimmed(in.Phone)

	if email != "" && !ValidEmail(email) {
		return "", apperror.InvalidInput(op, "email is not valid")
	}
	if fullName != "" && !ValidFullName(fullName) {
		return "", apperror.InvalidInput(op, "full name needs at least two words")
	}
	if phone != "" && !ValidPhone(phone) {
		return "", apperror.InvalidInput(op, "phone number is not valid")
	}

	var (
		user   models.User
		cartID uint
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound(op, "user %d not found", userID)
			}
			return apperror.Internal(op, err)
		}

		updates := map[string]interface{}{}
		if email != "" && email != user.Email {
			if err := unique(tx, op, "email", email, user.ID, "a user with this email already exists"); err != nil {
				return err
			}
			updates["email"] = email
		}
		if name != "" && name != user.Name {
			if err := unique(tx, op, "name", name, user.ID, "a user with this name already exists"); err != nil {
				return err
			}
			updates["name"] = name
		}
		if phone != "" && (user.Phone == nil || phone != *user.Phone) {
			if err := unique(tx, op, "phone", phone, user.ID, "a user with this phone number already exists"); err != nil {
				return err
			}
			updates["phone"] = phone
		}
		if fullName != "" {
			updates["full_name"] = fullName
		}
		if address != "" {
			updates["address"] = address
		}

		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return apperror.Internal(op, err)
			}
			if err := tx.First(&user, userID).Error; err != nil {
				return apperror.Internal(op, err)
			}
		}

		var err error
		cartID, err = cartOf(tx, op, user.ID)
		return err
	})
	if err != nil {
		return "", err
	}
	return s.issue(op, &user, cartID)
}

func (s *Service) issue(op string, user *models.User, cartID uint) (string, error) {
	token, err := s.tokens.Issue(Claims{
		UserID:   user.ID,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		CartID:   cartID,
		FullName: user.FullName,
		Address:  user.Address,
		Phone:    user.Phone,
	})
	if err != nil {
		return "", apperror.Internal(op, err)
	}
	return token, nil
}

func unique(tx *gorm.DB, op, column, value string, except uint, msg string) error {
	var count int64
	q := tx.Model(&models.User{}).Where(column+" = ?", value)
	if except != 0 {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return apperror.Internal(op, err)
	}
	if count > 0 {
		return apperror.Conflict(op, "%s", msg)
	}
	return nil
}

func cartOf(db *gorm.DB, op string, userID uint) (uint, error) {
	var cart models.Cart
	if err := db.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperror.NotFound(op, "cart for user %d not found", userID)
		}
		return 0, apperror.Internal(op, err)
	}
	return cart.ID, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// Customer is a user summary for the admin listing.
type Customer struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	OrderCount int64  `json:"orderCount"`
}

// ListCustomers returns every user with the number of orders they placed, newest user first.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	customers := []Customer{}
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.name, users.email, users.role, COUNT(orders.id) AS order_count").
		Joins("LEFT JOIN orders ON orders.user_id = users.id").
		Group("users.id, users.name, users.email, users.role").
		Order("users.id DESC").
		Scan(&customers).Error
	if err != nil {
		return nil, apperror.Internal("account.ListCustomers", err)
	}
	return customers, nil
}
