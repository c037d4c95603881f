package request

import (
	"errors"
	"fmt"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/meddist/internal-api/internal/domain"
)

const passwordRegexPattern = `^(?=.*[a-z])(?=.*[A-Z])(?=.*\d)(?=.*[@$!%*?&])[A-Za-z\d@$!%*?&]{8,}$`

// bcrypt rejects passwords longer than this.
const maxPasswordBytes = 72

var passwordExp = regexp2.MustCompile(passwordRegexPattern, regexp2.None)

var (
	errInvalidPassword = errors.New("password must contain at least one lowercase letter, one uppercase letter, one number and one special character")
	errNoAddresses     = errors.New("addresses: at least one address is required")
	errUnknownRole     = errors.New("roles: unknown role")
)

// strongPassword is a validation.Rule backed by the look-ahead pattern above.
var strongPassword = validation.By(func(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case *string:
		if v != nil {
			s = *v
		}
	}
	if s == "" {
		return nil
	}

	ok, err := passwordExp.MatchString(s)
	if err != nil {
		return fmt.Errorf("passwordExp.MatchString -> %w", err)
	}
	if !ok {
		return errInvalidPassword
	}

	return nil
})

type AddressRequest struct {
	CEP          string  `json:"cep"`
	Address      string  `json:"address"`
	Number       string  `json:"number"`
	Complement   *string `json:"complement"`
	Neighborhood string  `json:"neighborhood"`
	City         string  `json:"city"`
	State        string  `json:"state"`
}

func (req AddressRequest) Validate() error {
	return validation.ValidateStruct(
		&req,
		validation.Field(&req.CEP, validation.Required),
		validation.Field(&req.Address, validation.Required),
		validation.Field(&req.Number, validation.Required),
		validation.Field(&req.Neighborhood, validation.Required),
		validation.Field(&req.City, validation.Required),
		validation.Field(&req.State, validation.Required),
	)
}

func (req AddressRequest) ToDomain() domain.Address {
	return domain.Address{
		CEP:          req.CEP,
		Address:      req.Address,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
	}
}

type RegisterRequest struct {
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	Username  string           `json:"username"`
	FullName  string           `json:"fullName"`
	Telephone string           `json:"telephone"`
	CPF       string           `json:"cpf"`
	Addresses []AddressRequest `json:"addresses"`
}

func (req *RegisterRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required, validation.Length(8, maxPasswordBytes), strongPassword),
		validation.Field(&req.Username, validation.Required, validation.Length(3, 0)),
		validation.Field(&req.FullName, validation.Required),
		validation.Field(&req.Telephone, validation.Required),
		validation.Field(&req.CPF, validation.Required),
	)
	if err != nil {
		return err
	}

	if len(req.Addresses) == 0 {
		return errNoAddresses
	}
	for i, a := range req.Addresses {
		if err = a.Validate(); err != nil {
			return fmt.Errorf("addresses[%d]: %w", i, err)
		}
	}

	return nil
}

func (req *RegisterRequest) ToDomain() domain.User {
	addresses := make([]domain.Address, 0, len(req.Addresses))
	for _, a := range req.Addresses {
		addresses = append(addresses, a.ToDomain())
	}

	return domain.User{
		Email:     req.Email,
		Password:  req.Password,
		Username:  req.Username,
		FullName:  req.FullName,
		Telephone: req.Telephone,
		CPF:       req.CPF,
		Addresses: addresses,
	}
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

func (req *ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
	)
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

func (req *ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Token, validation.Required),
		validation.Field(&req.NewPassword, validation.Required, validation.Length(8, maxPasswordBytes), strongPassword),
	)
}

type UpdateUserRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Username *string `json:"username"`
}

func (req *UpdateUserRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&req.Password, validation.NilOrNotEmpty, validation.Length(8, maxPasswordBytes), strongPassword),
		validation.Field(&req.Username, validation.NilOrNotEmpty, validation.Length(3, 0)),
	)
}

func (req *UpdateUserRequest) ToDomain() domain.UserPatch {
	return domain.UserPatch{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}
}

type SetRolesRequest struct {
	Roles []string `json:"roles"`
}

func (req *SetRolesRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Roles, validation.Required),
	)
	if err != nil {
		return err
	}

	allowed := make(map[string]bool, len(domain.AllRoles))
	for _, r := range domain.AllRoles {
		allowed[r] = true
	}
	for _, r := range req.Roles {
		if !allowed[r] {
			return fmt.Errorf("%w %q", errUnknownRole, r)
		}
	}

	return nil
}
