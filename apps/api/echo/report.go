package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/report"
)

type reportApi struct {
	svc      report.Service
	validate *validator.Validate
}

func registerReportAPI(g *echo.Group, svc report.Service, validate *validator.Validate) {
	api := reportApi{
		svc:      svc,
		validate: validate,
	}

	rg := g.Group("/reports")
	rg.POST("/students/:studentId", api.student)
	rg.POST("/attendance", api.attendance)
}

func (api *reportApi) student(ctx echo.Context) error {
	rep, err := api.svc.StudentReport(ctx.Request().Context(), ctx.Param("studentId"))
	if err != nil {
		return errors.Wrap(err, "generating student report")
	}
	return ctx.JSON(http.StatusOK, rep)
}

func (api *reportApi) attendance(ctx echo.Context) error {
	var data report.ClassReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassReportRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rep, err := api.svc.AttendanceReport(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "generating attendance report")
	}
	return ctx.JSON(http.StatusOK, rep)
}
