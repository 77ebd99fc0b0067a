package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"net/http/pprof"

	"github.com/jmoiron/sqlx"

	dig_container "github.com/trezcool/shule/apps/api/di/dig"
	echoapi "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	metricsvc "github.com/trezcool/shule/services/metrics"
)

func startWithDig() {
	c := dig_container.New()

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		db *sqlx.DB,
		metrics *metricsvc.PrometheusMetrics,
		server *echoapi.Server,
	) {
		apiLogger.Info(fmt.Sprintf("%s API starting : build %q, env %s", conf.AppName, conf.Build, conf.Env))
		defer closeDB(db, dbLoggerParam.Logger)
		defer apiLogger.Info("API stopped")

		publishVars(conf)
		go func() {
			apiLogger.Info("debug server listening", map[string]interface{}{"addr": conf.Server.DebugHost})
			if err := http.ListenAndServe(conf.Server.DebugHost, debugMux(metrics)); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		go server.Start()
		waitForShutdown(conf, server, apiLogger)
	}))
}

// publishVars exposes the running configuration under /debug/vars.
func publishVars(conf *core.Config) {
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Path)
}

// debugMux serves pprof profiles, expvar values and Prometheus metrics.
// It is never exposed on the API address.
func debugMux(metrics *metricsvc.PrometheusMetrics) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// waitForShutdown blocks until the server fails or a stop signal arrives,
// then drains in-flight requests within conf.Server.ShutdownTimeout.
func waitForShutdown(conf *core.Config, server *echoapi.Server, logger core.Logger) {
	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: shutting down", sig))

		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("graceful shutdown failed: %v", err), err)
			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func closeDB(db *sqlx.DB, logger core.Logger) {
	if err := db.Close(); err != nil {
		logger.Fatal("closing database", err)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
