package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/report"
)

type reportAPI struct {
	engine *authz.Engine
	svc    report.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *authz.Engine, svc report.Service) {
	api := reportAPI{engine: engine, svc: svc}
	g.GET("/reports/grades", api.gradeSummary, jwt)
}

func (api *reportAPI) gradeSummary(ctx echo.Context) error {
	var filter report.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to report.Filter")
	}

	verdict, err := authorize(ctx, api.engine, authz.Request{
		Operation: authz.OpViewAll,
		Resource:  authz.ResReport,
		Report:    &authz.ReportFilter{StudentID: filter.StudentID, TeacherID: filter.TeacherID},
	})
	if err != nil {
		return err
	}

	var scope authz.Scope
	if verdict.Scope != nil {
		scope = *verdict.Scope
	}
	summaries, err := api.svc.GenerateGradeSummary(ctx.Request().Context(), filter, scope)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, summaries)
}
