package profile

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleAgent   = "agent"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

var (
	AllRoles = []string{RoleStudent, RoleAgent, RoleStaff, RoleAdmin}

	rolePriorities = map[string]int{
		RoleAdmin:   40,
		RoleStaff:   30,
		RoleAgent:   20,
		RoleStudent: 10,
	}
)

func RolePriority(role string) int {
	return rolePriorities[role]
}

// Profile is the local mirror of a platform auth user. The ID is the subject
// claim of the platform-issued token; profiles are provisioned on first sight.
type Profile struct {
	ID        string    `json:"id"`
	Tenant    string    `json:"tenant"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Actor is the authenticated caller of a service operation, derived from
// verified token claims. It is passed explicitly; there is no ambient session.
type Actor struct {
	ID     string
	Tenant string
	Role   string
	Email  string
	Name   string
}

func (a Actor) IsStudent() bool { return a.Role == RoleStudent }
func (a Actor) IsAgent() bool   { return a.Role == RoleAgent }
func (a Actor) IsStaff() bool   { return a.Role == RoleStaff || a.Role == RoleAdmin }
func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }

// UpdateProfile defines what information a user may change on their own profile.
type UpdateProfile struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	up.Email = core.CleanString(up.Email, true /* lower */)
	return validate.Struct(up)
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
}

var (
	roleTag  = "role"
	roleText = "invalid role"
)

// InitValidators registers profile validators on the shared validator instance.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

func roleValidation(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}
