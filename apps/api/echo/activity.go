package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/edulane/darasa/core/activity"
)

type activityApi struct {
	svc *activity.Service
}

func registerActivityAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *activity.Service) {
	api := activityApi{svc: svc}

	ag := g.Group("/activity", jwt)

	ag.POST("/log", api.record)
	ag.GET("/classroom/:id", api.logs)
	ag.GET("/classroom/:id/analytics", api.analytics)
	ag.GET("/classroom/:id/content/:targetId", api.contentViewers)
}

func (api *activityApi) record(ctx echo.Context) error {
	var data activity.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	entry, err := api.svc.Record(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *activityApi) logs(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var filter activity.LogFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to LogFilter")
	}

	entries, total, hasMore, err := api.svc.Logs(ctx.Request().Context(), ctx.Param("id"), claims.Subject, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, LogsResponse{
		Logs:    entries,
		Total:   total,
		HasMore: hasMore,
	})
}

func (api *activityApi) analytics(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	days, _ := strconv.Atoi(ctx.QueryParam("days"))
	report, err := api.svc.Analytics(ctx.Request().Context(), ctx.Param("id"), claims.Subject, days)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *activityApi) contentViewers(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	stat, err := api.svc.ContentViewers(ctx.Request().Context(), ctx.Param("id"), claims.Subject, ctx.Param("targetId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stat)
}

type LogsResponse struct {
	Logs    []activity.Entry `json:"logs"`
	Total   int              `json:"total"`
	HasMore bool             `json:"hasMore"`
}
