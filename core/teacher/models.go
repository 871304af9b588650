package teacher

import (
	"github.com/tigranyan252/studentperf/core/user"
)

// Teacher is the domain profile paired 1:1 with a RoleTeacher Actor. The two
// rows are created and deleted together.
type Teacher struct {
	ID      int       `json:"id"`
	UserID  int       `json:"user_id"`
	Version int       `json:"version"`
	User    user.User `json:"user"`
}

// NewTeacher contains information needed to create a Teacher and its paired
// Actor in one atomic operation.
type NewTeacher struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nt *NewTeacher) asNewUser() user.NewUser {
	return user.NewUser{
		Username:        nt.Username,
		Email:           nt.Email,
		Password:        nt.Password,
		PasswordConfirm: nt.PasswordConfirm,
		Role:            user.RoleTeacher,
	}
}

// UpdateTeacher mutates the paired Actor; the profile itself has no mutable
// fields of its own.
type UpdateTeacher struct {
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	Version         int    `json:"version" validate:"required"`
}
