package attendance

import (
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	ErrEmptyBatch      = errors.New("at least one attendance record is required")
	ErrMixedDates      = errors.New("all attendance records of a batch must share the same date")
	ErrDuplicateRecord = errors.New("a student appears more than once in the batch")
	ErrMissingPresence = errors.New("presence must be given for every student")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
)

// Record is one student's presence on a date.
// (StudentID, Date) is not unique: taking attendance twice appends a second record.
type Record struct {
	ID        string `db:"id" json:"id"`
	StudentID string `db:"studentId" json:"studentId"` // Student.ID
	Date      string `db:"date" json:"date"`           // DateLayout
	IsPresent bool   `db:"isPresent" json:"isPresent"`
}

// ClassRow is a Record joined with its student's identity.
type ClassRow struct {
	Record
	FirstName       string `db:"firstName" json:"firstName"`
	LastName        string `db:"lastName" json:"lastName"`
	StudentIDNumber string `db:"studentIdNumber" json:"studentIdNumber"` // Student.StudentID
}

// Counts aggregates attendance records.
type Counts struct {
	Total   int `db:"total" json:"total"`
	Present int `db:"present" json:"present"`
}

// Rate is the percentage of present records, rounded to one decimal.
// It is 100 when there are no records.
func (c Counts) Rate() float64 {
	return Rate(c.Present, c.Total)
}

func Rate(present, total int) float64 {
	if total <= 0 {
		return 100
	}
	return math.Round(1000*float64(present)/float64(total)) / 10
}

// NewRecord contains information needed to record a student's attendance.
type NewRecord struct {
	StudentID string `json:"studentId" validate:"required,notblank"` // Student.ID
	Date      string `json:"date" validate:"required,isodate"`
	IsPresent *bool  `json:"isPresent" validate:"required"`
}

// Batch is the attendance of several students on a single date.
type Batch struct {
	Records []NewRecord `json:"records" validate:"required,min=1,dive"`
}

// Date is the date shared by all records of a valid Batch.
func (b Batch) Date() string {
	if len(b.Records) == 0 {
		return ""
	}
	return core.CleanString(b.Records[0].Date)
}

// Validate rejects empty batches, invalid records, batches spanning several dates
// and batches listing the same student twice.
func (b *Batch) Validate(validate *validator.Validate) error {
	if len(b.Records) == 0 {
		return b.check()
	}
	for i := range b.Records {
		b.Records[i].StudentID = core.CleanString(b.Records[i].StudentID)
		b.Records[i].Date = core.CleanString(b.Records[i].Date)
	}
	if err := validate.Struct(b); err != nil {
		return err
	}
	return b.check()
}

// check enforces the batch rules that do not depend on struct validation.
func (b Batch) check() error {
	if len(b.Records) == 0 {
		return core.NewValidationError(ErrEmptyBatch, core.FieldError{Field: "records", Error: ErrEmptyBatch.Error()})
	}

	date := b.Date()
	if !core.IsDate(date) {
		return core.NewValidationError(ErrInvalidDate, core.FieldError{Field: "date", Error: ErrInvalidDate.Error()})
	}
	seen := make(map[string]struct{}, len(b.Records))
	for _, rec := range b.Records {
		if rec.IsPresent == nil {
			return core.NewValidationError(ErrMissingPresence, core.FieldError{Field: "isPresent", Error: ErrMissingPresence.Error()})
		}
		if core.CleanString(rec.Date) != date {
			return core.NewValidationError(ErrMixedDates, core.FieldError{Field: "date", Error: ErrMixedDates.Error()})
		}
		id := core.CleanString(rec.StudentID)
		if _, ok := seen[id]; ok {
			return core.NewValidationError(ErrDuplicateRecord, core.FieldError{Field: "studentId", Error: ErrDuplicateRecord.Error()})
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ClassFilter selects a class's attendance within an inclusive date range.
type ClassFilter struct {
	Grade     string
	Section   string
	StartDate string
	EndDate   string
}
