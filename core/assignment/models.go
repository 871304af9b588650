package assignment

// Assignment grants one Teacher authority over one Group for one Subject in
// one Semester. The 4-tuple (TeacherID, SubjectID, GroupID, SemesterID) is
// unique among live rows; it is the sole basis for a teacher's write
// authority over grades.
type Assignment struct {
	ID         int `json:"id"`
	TeacherID  int `json:"teacher_id"`
	SubjectID  int `json:"subject_id"`
	GroupID    int `json:"group_id"`
	SemesterID int `json:"semester_id"`
	Version    int `json:"version"`
}

func (a Assignment) sameTuple(b Assignment) bool {
	return a.TeacherID == b.TeacherID &&
		a.SubjectID == b.SubjectID &&
		a.GroupID == b.GroupID &&
		a.SemesterID == b.SemesterID
}

type NewAssignment struct {
	TeacherID  int `json:"teacher_id" validate:"required"`
	SubjectID  int `json:"subject_id" validate:"required"`
	GroupID    int `json:"group_id" validate:"required"`
	SemesterID int `json:"semester_id" validate:"required"`
}

// UpdateAssignment retargets an assignment. Only supplied fields change; the
// resulting tuple is checked for duplicates excluding the row itself.
type UpdateAssignment struct {
	TeacherID  *int `json:"teacher_id"`
	SubjectID  *int `json:"subject_id"`
	GroupID    *int `json:"group_id"`
	SemesterID *int `json:"semester_id"`
	Version    int  `json:"version" validate:"required"`
}

// Filter narrows assignment queries; nil fields do not filter.
type Filter struct {
	TeacherID  *int
	SubjectID  *int
	GroupID    *int
	SemesterID *int
}

func (f Filter) Matches(a Assignment) bool {
	if f.TeacherID != nil && a.TeacherID != *f.TeacherID {
		return false
	}
	if f.SubjectID != nil && a.SubjectID != *f.SubjectID {
		return false
	}
	if f.GroupID != nil && a.GroupID != *f.GroupID {
		return false
	}
	if f.SemesterID != nil && a.SemesterID != *f.SemesterID {
		return false
	}
	return true
}
