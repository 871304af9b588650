package grade

import (
	"time"
)

// Grade is a recorded mark. TeacherID, SubjectID and SemesterID are copied
// from the granting Assignment at creation and are immutable afterwards;
// changing the academic context requires delete+recreate.
type Grade struct {
	ID           int       `json:"id"`
	Ref          string    `json:"ref"` // opaque external reference (UUID)
	StudentID    int       `json:"student_id"`
	AssignmentID int       `json:"assignment_id"`
	TeacherID    int       `json:"teacher_id"`
	SubjectID    int       `json:"subject_id"`
	SemesterID   int       `json:"semester_id"`
	Value        int       `json:"value"`
	RecordedAt   time.Time `json:"recorded_at"` // UTC
	Version      int       `json:"version"`
}

// NewGrade identifies the academic context of a prospective grade. The
// recording teacher is never taken from here: it is re-derived from the
// matching assignment grant.
type NewGrade struct {
	StudentID  int `json:"student_id" validate:"required"`
	SubjectID  int `json:"subject_id" validate:"required"`
	SemesterID int `json:"semester_id" validate:"required"`
	Value      int `json:"value" validate:"min=0,max=100"`
}

// UpdateGrade may only change the value; identifying fields are immutable.
type UpdateGrade struct {
	Value   int `json:"value" validate:"min=0,max=100"`
	Version int `json:"version" validate:"required"`
}

// Filter narrows grade queries; nil fields do not filter. GroupID matches on
// the student's current group.
type Filter struct {
	StudentID  *int
	TeacherID  *int
	SubjectID  *int
	SemesterID *int
	GroupID    *int
}
