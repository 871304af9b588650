package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/student"
	"github.com/tigranyan252/studentperf/core/user"
)

type studentAPI struct {
	engine *authz.Engine
	svc    student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *authz.Engine, svc student.Service) {
	api := studentAPI{engine: engine, svc: svc}

	sg := g.Group("/students", jwt)
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

func (api *studentAPI) create(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpCreate, Resource: authz.ResStudent}); err != nil {
		return err
	}
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	std, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

// query applies the verdict's scope predicate: teachers only see students in
// groups they hold a grant for.
func (api *studentAPI) query(ctx echo.Context) error {
	verdict, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResStudent})
	if err != nil {
		return err
	}

	var students []student.Student
	if verdict.Scope != nil {
		if len(verdict.Scope.GroupIDs) == 0 {
			// a teacher with no grants sees an empty listing
			return ctx.JSON(http.StatusOK, []student.Student{})
		}
		students, err = api.svc.Filter(ctx.Request().Context(), student.Filter{GroupIDs: verdict.Scope.GroupIDs})
	} else {
		students, err = api.svc.QueryAll(ctx.Request().Context())
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentAPI) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResStudent, ResourceID: id}); err != nil {
		return err
	}
	std, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentAPI) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResStudent, ResourceID: id}); err != nil {
		return err
	}
	var data student.UpdateStudent
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}

	// students may only touch their own actor fields, never their group
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if actor.Role == user.RoleStudent && data.GroupID != nil {
		return errHTTPForbidden
	}

	std, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentAPI) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResStudent, ResourceID: id}); err != nil {
		return err
	}
	version, err := queryVersion(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), id, version); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
