package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/attendance"
)

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, validate *validator.Validate) {
	api := attendanceApi{
		svc:      svc,
		validate: validate,
	}

	g.POST("/attendance", api.save)
}

// save expects a JSON array of records sharing the same date.
func (api *attendanceApi) save(ctx echo.Context) error {
	var batch attendance.Batch
	if err := ctx.Bind(&batch.Records); err != nil {
		return errors.Wrap(err, "binding to attendance records")
	}
	if err := batch.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.svc.Save(ctx.Request().Context(), batch)
	if err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	return ctx.JSON(http.StatusCreated, records)
}
