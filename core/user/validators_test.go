package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/user"
)

func validNewUser() user.NewUser {
	return user.NewUser{
		Username:        "jsmith",
		Email:           "jsmith@test.test",
		Password:        "V3ry.Secret",
		PasswordConfirm: "V3ry.Secret",
		Role:            user.RoleStudent,
	}
}

func TestPasswordPolicy(t *testing.T) {
	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{"too short", "Ab1!xyz", "pwdminlen"},
		{"contains whitespace", "pass word123", "pwdnospace"},
		{"entirely numeric", "1234567890", "pwdnotallnum"},
		{"similar to username", "jsmith99", "pwdtoosim"},
		{"similar to email", "jsmith@test.test", "pwdtoosim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := validNewUser()
			nu.Password = tt.pwd
			nu.PasswordConfirm = tt.pwd

			err := core.Validate.Struct(nu)
			var vErrs validator.ValidationErrors
			require.ErrorAs(t, err, &vErrs)

			tags := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				tags = append(tags, fe.Tag())
			}
			assert.Contains(t, tags, tt.wantTag)
		})
	}

	assert.NoError(t, core.Validate.Struct(validNewUser()))
}

func TestPasswordPolicy_updateSkipsEmptyPassword(t *testing.T) {
	// an update without a password change is not subject to the policy
	uu := user.UpdateUser{Email: "jsmith@test.test", Version: 1}
	assert.NoError(t, core.Validate.Struct(uu))

	uu.Password = "123"
	uu.PasswordConfirm = "123"
	err := core.Validate.Struct(uu)
	var vErrs validator.ValidationErrors
	assert.ErrorAs(t, err, &vErrs)
}

func TestRoleValidation(t *testing.T) {
	nu := validNewUser()
	nu.Role = "superuser"
	err := core.Validate.Struct(nu)
	var vErrs validator.ValidationErrors
	require.ErrorAs(t, err, &vErrs)

	for _, r := range user.AllRoles {
		nu.Role = r
		assert.NoError(t, core.Validate.Struct(nu), r)
	}
}
