package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/activity"
	"github.com/trezcool/shule/core/report"
)

type dashboardApi struct {
	reports    report.Service
	activities activity.Service
}

func registerDashboardAPI(g *echo.Group, reports report.Service, activities activity.Service) {
	api := dashboardApi{
		reports:    reports,
		activities: activities,
	}

	g.GET("/dashboard", api.stats)
	g.GET("/activities", api.recentActivities)
}

func (api *dashboardApi) stats(ctx echo.Context) error {
	stats, err := api.reports.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// recentActivities lists the latest activities, newest first (`?limit=`, default activity.DefaultLimit).
func (api *dashboardApi) recentActivities(ctx echo.Context) error {
	acts, err := api.activities.Recent(ctx.Request().Context(), bindLimit(ctx))
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}
	if acts == nil {
		acts = []activity.Activity{}
	}
	return ctx.JSON(http.StatusOK, acts)
}
