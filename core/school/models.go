package school

import (
	"time"

	"github.com/tigranyan252/studentperf/core"
)

// Group is a cohort of students. Name and Code are unique (exact match).
type Group struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Version int    `json:"version"`
}

// Subject is a taught discipline. Name and Code are unique (exact match).
type Subject struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Version int    `json:"version"`
}

// Semester is an academic term. StartDate must precede EndDate.
type Semester struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Version   int       `json:"version"`
}

type NewGroup struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,alphanum_"`
}

func (ng *NewGroup) Validate() error {
	ng.Name = core.CleanString(ng.Name)
	ng.Code = core.CleanString(ng.Code)
	return core.Validate.Struct(ng)
}

type UpdateGroup struct {
	Name    string `json:"name"`
	Code    string `json:"code" validate:"omitempty,alphanum_"`
	Version int    `json:"version" validate:"required"`
}

func (ug *UpdateGroup) Validate(orig Group) error {
	if name := core.CleanString(ug.Name); name != "" {
		ug.Name = name
	} else {
		ug.Name = orig.Name
	}
	if code := core.CleanString(ug.Code); code != "" {
		ug.Code = code
	} else {
		ug.Code = orig.Code
	}
	return core.Validate.Struct(ug)
}

type NewSubject struct {
	Name string `json:"name" validate:"required"`
	Code string `json:"code" validate:"required,alphanum_"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	return core.Validate.Struct(ns)
}

type UpdateSubject struct {
	Name    string `json:"name"`
	Code    string `json:"code" validate:"omitempty,alphanum_"`
	Version int    `json:"version" validate:"required"`
}

func (us *UpdateSubject) Validate(orig Subject) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if code := core.CleanString(us.Code); code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}
	return core.Validate.Struct(us)
}

type NewSemester struct {
	Name      string    `json:"name" validate:"required"`
	Code      string    `json:"code" validate:"required,alphanum_"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
}

func (ns *NewSemester) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code)
	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return validateSemesterDates(ns.StartDate, ns.EndDate)
}

type UpdateSemester struct {
	Name      string     `json:"name"`
	Code      string     `json:"code" validate:"omitempty,alphanum_"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Version   int        `json:"version" validate:"required"`
}

func (us *UpdateSemester) Validate(orig Semester) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if code := core.CleanString(us.Code); code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}
	if us.StartDate == nil {
		us.StartDate = &orig.StartDate
	}
	if us.EndDate == nil {
		us.EndDate = &orig.EndDate
	}
	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return validateSemesterDates(*us.StartDate, *us.EndDate)
}

func validateSemesterDates(start, end time.Time) error {
	if !start.Before(end) {
		return core.NewValidationError(
			ErrInvalidSemesterDates,
			core.FieldError{Field: "start_date", Error: ErrInvalidSemesterDates.Error()},
		)
	}
	return nil
}
