package echoapi

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tigranyan252/studentperf/core"
	"github.com/tigranyan252/studentperf/core/authz"
	"github.com/tigranyan252/studentperf/core/grade"
	"github.com/tigranyan252/studentperf/core/teacher"
	"github.com/tigranyan252/studentperf/core/user"
)

type gradeAPI struct {
	engine     *authz.Engine
	svc        grade.Service
	teacherSvc teacher.Service
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, engine *authz.Engine, svc grade.Service, teacherSvc teacher.Service) {
	api := gradeAPI{engine: engine, svc: svc, teacherSvc: teacherSvc}

	gg := g.Group("/grades", jwt)
	gg.POST("", api.create)
	gg.GET("", api.query)
	gg.GET("/:id", api.retrieve)
	gg.PUT("/:id", api.update)
	gg.DELETE("/:id", api.destroy)
}

// CreateGradeRequest carries the academic context of a prospective grade.
// TeacherID is only honored for administrators, who record on a teacher's
// behalf; for teacher callers the attribution comes from their own grant.
type CreateGradeRequest struct {
	grade.NewGrade
	TeacherID int `json:"teacher_id"`
}

func (api *gradeAPI) create(ctx echo.Context) error {
	var data CreateGradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CreateGradeRequest")
	}

	if _, err := authorize(ctx, api.engine, authz.Request{
		Operation: authz.OpCreate,
		Resource:  authz.ResGrade,
		NewGrade: &authz.GradeContext{
			StudentID:  data.StudentID,
			SubjectID:  data.SubjectID,
			SemesterID: data.SemesterID,
		},
	}); err != nil {
		return err
	}

	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	teacherID := data.TeacherID
	if actor.Role == user.RoleTeacher {
		tchr, err := api.teacherSvc.GetByUserID(ctx.Request().Context(), actor.ID)
		if err != nil {
			return errors.Wrap(err, "resolving teacher profile")
		}
		teacherID = tchr.ID
	} else if teacherID == 0 {
		return core.NewValidationError(errors.New("a recording teacher is required"),
			core.FieldError{Field: "teacher_id", Error: "a recording teacher is required"})
	}

	g, err := api.svc.Create(ctx.Request().Context(), teacherID, data.NewGrade)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

// query applies the verdict's scope to the listing. A teacher's scope is a
// union: grades they recorded OR grades of students in groups they teach.
func (api *gradeAPI) query(ctx echo.Context) error {
	verdict, err := authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewAll, Resource: authz.ResGrade})
	if err != nil {
		return err
	}

	filter := bindGradeFilter(ctx)
	grades, err := api.filterScoped(ctx, filter, verdict.Scope)
	if err != nil {
		return err
	}
	if grades == nil {
		grades = []grade.Grade{}
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeAPI) filterScoped(ctx echo.Context, filter grade.Filter, scope *authz.Scope) ([]grade.Grade, error) {
	reqCtx := ctx.Request().Context()
	if scope == nil {
		return api.svc.Filter(reqCtx, filter)
	}

	if scope.StudentID != 0 {
		// students only ever see their own rows, whatever they asked for
		sid := scope.StudentID
		filter.StudentID = &sid
		return api.svc.Filter(reqCtx, filter)
	}

	// teacher union: rows recorded by the teacher OR rows of students in the
	// taught groups, deduplicated on ID
	seen := make(map[int]bool)
	var merged []grade.Grade
	collect := func(f grade.Filter) error {
		grades, err := api.svc.Filter(reqCtx, f)
		if err != nil {
			return err
		}
		for _, g := range grades {
			if !seen[g.ID] {
				seen[g.ID] = true
				merged = append(merged, g)
			}
		}
		return nil
	}

	if scope.TeacherID != 0 {
		own := filter
		tid := scope.TeacherID
		own.TeacherID = &tid
		if err := collect(own); err != nil {
			return nil, err
		}
	}
	for _, groupID := range scope.GroupIDs {
		byGroup := filter
		gid := groupID
		byGroup.GroupID = &gid
		if err := collect(byGroup); err != nil {
			return nil, err
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].ID < merged[j].ID })
	return merged, nil
}

func (api *gradeAPI) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpViewOne, Resource: authz.ResGrade, ResourceID: id}); err != nil {
		return err
	}
	g, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeAPI) update(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpUpdate, Resource: authz.ResGrade, ResourceID: id}); err != nil {
		return err
	}
	var data grade.UpdateGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrade")
	}
	g, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

func (api *gradeAPI) destroy(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	if _, err = authorize(ctx, api.engine, authz.Request{Operation: authz.OpDelete, Resource: authz.ResGrade, ResourceID: id}); err != nil {
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

func bindGradeFilter(ctx echo.Context) grade.Filter {
	var filter grade.Filter
	bind := func(param string, dst **int) {
		if v, err := strconv.Atoi(ctx.QueryParam(param)); err == nil {
			*dst = &v
		}
	}
	bind("student_id", &filter.StudentID)
	bind("teacher_id", &filter.TeacherID)
	bind("subject_id", &filter.SubjectID)
	bind("semester_id", &filter.SemesterID)
	bind("group_id", &filter.GroupID)
	return filter
}
