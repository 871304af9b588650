package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/school"
)

type schoolAPI struct {
	engine *authz.Engine
	svc    school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *authz.Engine, svc school.Service) {
	api := schoolAPI{engine: engine, svc: svc}

	gg := g.Group("/groups", jwt)
	gg.POST("", api.createGroup)
	gg.GET("", api.queryGroups)
	gg.GET("/:id", api.retrieveGroup)
	gg.PUT("/:id", api.updateGroup)
	gg.DELETE("/:id", api.destroyGroup)

	sg := g.Group("/subjects", jwt)
	sg.POST("", api.createSubject)
	sg.GET("", api.querySubjects)
	sg.GET("/:id", api.retrieveSubject)
	sg.PUT("/:id", api.updateSubject)
	sg.DELETE("/:id", api.destroySubject)

	smg := g.Group("/semesters", jwt)
	smg.POST("", api.createSemester)
	smg.GET("", api.querySemesters)
	smg.GET("/:id", api.retrieveSemester)
	smg.PUT("/:id", api.updateSemester)
	smg.DELETE("/:id", api.destroySemester)
}

// Groups

func (api *schoolAPI) createGroup(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpCreate, Resource: authz.ResGroup}); err != nil {
		return err
	}
	var data school.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	g, err := api.svc.CreateGroup(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *schoolAPI) queryGroups(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResGroup}); err != nil {
		return err
	}
	groups, err := api.svc.QueryAllGroups(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *schoolAPI) retrieveGroup(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGroup, ResourceID: id}); err != nil {
		return err
	}
	g, err := api.svc.GetGroupByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *schoolAPI) updateGroup(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResGroup, ResourceID: id}); err != nil {
		return err
	}
	var data school.UpdateGroup
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	g, err := api.svc.UpdateGroup(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *schoolAPI) destroyGroup(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResGroup, ResourceID: id}); err != nil {
		return err
	}
	version, err := queryVersion(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteGroup(ctx.Request().Context(), id, version); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *schoolAPI) createSubject(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpCreate, Resource: authz.ResSubject}); err != nil {
		return err
	}
	var data school.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	s, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolAPI) querySubjects(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResSubject}); err != nil {
		return err
	}
	subjects, err := api.svc.QueryAllSubjects(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolAPI) retrieveSubject(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResSubject, ResourceID: id}); err != nil {
		return err
	}
	s, err := api.svc.GetSubjectByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolAPI) updateSubject(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResSubject, ResourceID: id}); err != nil {
		return err
	}
	var data school.UpdateSubject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSubject")
	}
	s, err := api.svc.UpdateSubject(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolAPI) destroySubject(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResSubject, ResourceID: id}); err != nil {
		return err
	}
	version, err := queryVersion(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubject(ctx.Request().Context(), id, version); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Semesters

func (api *schoolAPI) createSemester(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpCreate, Resource: authz.ResSemester}); err != nil {
		return err
	}
	var data school.NewSemester
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSemester")
	}
	s, err := api.svc.CreateSemester(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolAPI) querySemesters(ctx echo.Context) error {
	if _, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResSemester}); err != nil {
		return err
	}
	semesters, err := api.svc.QueryAllSemesters(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, semesters)
}

func (api *schoolAPI) retrieveSemester(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResSemester, ResourceID: id}); err != nil {
		return err
	}
	s, err := api.svc.GetSemesterByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolAPI) updateSemester(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResSemester, ResourceID: id}); err != nil {
		return err
	}
	var data school.UpdateSemester
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSemester")
	}
	s, err := api.svc.UpdateSemester(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolAPI) destroySemester(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResSemester, ResourceID: id}); err != nil {
		return err
	}
	version, err := queryVersion(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSemester(ctx.Request().Context(), id, version); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
