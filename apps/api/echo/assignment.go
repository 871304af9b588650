package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/assignment"
	"github.com/tigranyan252/studentperf/core/authz"
)

type assignmentAPI struct {
	engine *authz.Engine
	svc    assignment.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *authz.Engine, svc assignment.Service) {
	api := assignmentAPI{engine: engine, svc: svc}

	ag := g.Group("/assignments", jwt)
	ag.POST("", api.create)
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
}

func (api *assignmentAPI) create(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpCreate, Resource: authz.ResAssignment}); err != nil {
		return err
	}
	var data assignment.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	a, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentAPI) query(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResAssignment}); err != nil {
		return err
	}
	filter := bindAssignmentFilter(ctx)
	assignments, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *assignmentAPI) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResAssignment, ResourceID: id}); err != nil {
		return err
	}
	a, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResAssignment, ResourceID: id}); err != nil {
		return err
	}
	var data assignment.UpdateAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	a, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResAssignment, ResourceID: id}); err != nil {
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

func bindAssignmentFilter(ctx echo.Context) assignment.Filter {
	var filter assignment.Filter
	bind := func(param string, dst **int) {
		if v, err := strconv.Atoi(ctx.QueryParam(param)); err == nil {
			*dst = &v
		}
	}
	bind("teacher_id", &filter.TeacherID)
	bind("subject_id", &filter.SubjectID)
	bind("group_id", &filter.GroupID)
	bind("semester_id", &filter.SemesterID)
	return filter
}
