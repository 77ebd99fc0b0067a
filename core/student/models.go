package student

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Genders accepted on new students.
var Genders = []string{"male", "female", "other"}

// Student is a pupil enrolled in a class (grade + section).
// Students are created and deleted, never updated.
type Student struct {
	ID          string `db:"id" json:"id"`
	FirstName   string `db:"firstName" json:"firstName"`
	LastName    string `db:"lastName" json:"lastName"`
	StudentID   string `db:"studentId" json:"studentId"` // business key
	Grade       string `db:"grade" json:"grade"`
	Section     string `db:"section" json:"section"`
	Gender      string `db:"gender" json:"gender"`
	DateOfBirth string `db:"dateOfBirth" json:"dateOfBirth"` // DateLayout
	CreatedAt   string `db:"createdAt" json:"createdAt"`     // TimestampLayout, UTC
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// Class is a roster group and its head count.
type Class struct {
	Grade    string `db:"grade" json:"grade"`
	Section  string `db:"section" json:"section"`
	Students int    `db:"students" json:"students"`
}

// NewStudent contains information needed to create a new Student.
type NewStudent struct {
	FirstName   string `json:"firstName" validate:"required,notblank,max=100"`
	LastName    string `json:"lastName" validate:"required,notblank,max=100"`
	StudentID   string `json:"studentId" validate:"required,notblank,max=50"`
	Grade       string `json:"grade" validate:"required,notblank,max=20"`
	Section     string `json:"section" validate:"required,notblank,max=20"`
	Gender      string `json:"gender" validate:"required,gender"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,isodate"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.StudentID = core.CleanString(ns.StudentID)
	ns.Grade = core.CleanString(ns.Grade)
	ns.Section = core.CleanString(ns.Section)
	ns.Gender = core.CleanString(ns.Gender, true /* lower */)
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)

	return validate.Struct(ns)
}

// GetFilter selects a single Student by internal ID or by business key.
type GetFilter struct {
	ID        string
	StudentID string
}

type QueryFilter struct {
	Grade   string `query:"grade"`
	Section string `query:"section"`
	Search  string `query:"search"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Grade == "" && qf.Section == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Grade = core.CleanString(qf.Grade)
	qf.Section = core.CleanString(qf.Section)
	qf.Search = core.CleanString(qf.Search)
}
