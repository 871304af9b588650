package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core"
)

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)

func (lr *LoginRequest) Validate() error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return core.Validate.Struct(lr)
}

// pathID parses the ":id" path param.
func pathID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id <= 0 {
		return 0, errHTTPNotFound
	}
	return id, nil
}

// queryVersion parses the mandatory "version" query param of delete requests.
func queryVersion(ctx echo.Context) (int, error) {
	v, err := strconv.Atoi(ctx.QueryParam("version"))
	if err != nil || v <= 0 {
		return 0, core.NewValidationError(errors.New("a valid current version is required"),
			core.FieldError{Field: "version", Error: "a valid current version is required"})
	}
	return v, nil
}
