package student

import (
	"github.com/tigranyan252/studentperf/core/user"
)

// Student is the domain profile paired 1:1 with a RoleStudent Actor. Every
// student belongs to exactly one Group.
type Student struct {
	ID      int       `json:"id"`
	UserID  int       `json:"user_id"`
	GroupID int       `json:"group_id"`
	Version int       `json:"version"`
	User    user.User `json:"user"`
}

// NewStudent contains information needed to create a Student and its paired
// Actor in one atomic operation.
type NewStudent struct {
	Username        string `json:"username" validate:"required,min=3,alphanum_"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	GroupID         int    `json:"group_id" validate:"required"`
}

func (ns *NewStudent) asNewUser() user.NewUser {
	return user.NewUser{
		Username:        ns.Username,
		Email:           ns.Email,
		Password:        ns.Password,
		PasswordConfirm: ns.PasswordConfirm,
		Role:            user.RoleStudent,
	}
}

// UpdateStudent carries partial changes to the profile and its Actor. GroupID
// moves the student to another group; Version is the profile row's token when
// GroupID is set, the actor row's otherwise.
type UpdateStudent struct {
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	GroupID         *int   `json:"group_id"`
	Version         int    `json:"version" validate:"required"`
}

func (us UpdateStudent) touchesActor() bool {
	return us.Email != "" || us.Password != ""
}

// Filter narrows student listings; zero fields do not filter.
type Filter struct {
	GroupIDs []int
}

func (f Filter) IsEmpty() bool { return len(f.GroupIDs) == 0 }
