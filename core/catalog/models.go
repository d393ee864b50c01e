package catalog

import (
	"github.com/go-playground/validator/v10"

	"github.com/unigate/unigate/core"
)

type University struct {
	ID      string `json:"id"`
	Tenant  string `json:"tenant"`
	Name    string `json:"name"`
	Country string `json:"country"`
	City    string `json:"city"`
}

type Program struct {
	ID           string `json:"id"`
	UniversityID string `json:"university_id"`
	Name         string `json:"name"`
	Level        string `json:"level"` // free-form, e.g. "BSc (Hons)", "MSc", "PhD"
	TuitionCents int64  `json:"tuition_cents"`
	Currency     string `json:"currency"`
}

type NewUniversity struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
	City    string `json:"city"`
}

func (nu *NewUniversity) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Country = core.CleanString(nu.Country)
	nu.City = core.CleanString(nu.City)
	return validate.Struct(nu)
}

type NewProgram struct {
	UniversityID string `json:"university_id" validate:"required,uuid4"`
	Name         string `json:"name" validate:"required"`
	Level        string `json:"level"`
	TuitionCents int64  `json:"tuition_cents" validate:"omitempty,min=0"`
	Currency     string `json:"currency" validate:"omitempty,len=3"`
}

func (np *NewProgram) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Level = core.CleanString(np.Level)
	np.Currency = core.CleanString(np.Currency, true /* lower */)
	if np.Currency == "" {
		np.Currency = "gbp"
	}
	return validate.Struct(np)
}

type QueryFilter struct {
	Search       string `query:"search"`
	Country      string `query:"country"`
	UniversityID string `query:"university_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Country = core.CleanString(qf.Country)
}
