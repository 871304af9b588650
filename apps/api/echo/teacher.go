package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/teacher"
)

type teacherAPI struct {
	engine *authz.Engine
	svc    teacher.Service
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *authz.Engine, svc teacher.Service) {
	api := teacherAPI{engine: engine, svc: svc}

	tg := g.Group("/teachers", jwt)
	tg.POST("", api.create)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
}

func (api *teacherAPI) create(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpCreate, Resource: authz.ResTeacher}); err != nil {
		return err
	}
	var data teacher.NewTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeacher")
	}
	tchr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tchr)
}

func (api *teacherAPI) query(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResTeacher}); err != nil {
		return err
	}
	teachers, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherAPI) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResTeacher, ResourceID: id}); err != nil {
		return err
	}
	tchr, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *teacherAPI) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResTeacher, ResourceID: id}); err != nil {
		return err
	}
	var data teacher.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	tchr, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tchr)
}

func (api *teacherAPI) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResTeacher, ResourceID: id}); err != nil {
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
