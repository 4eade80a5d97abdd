package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/atlassian/gmetricd/pkg/healthcheck"
	"github.com/atlassian/gmetricd/pkg/store"
)

// HttpServer exposes health checks and a JSON dump of the metric store.
type HttpServer struct {
	logger   logrus.FieldLogger
	address  string
	Router   *mux.Router
	listener net.Listener
}

type route struct {
	path    string
	handler http.HandlerFunc
	method  string
	name    string
}

var done = struct{}{}

// NewHttpServer creates a server for address. Listen must be called before Run.
func NewHttpServer(
	logger logrus.FieldLogger,
	address string,
	st *store.Store,
	healthChecks []healthcheck.HealthcheckFunc,
	deepChecks []healthcheck.HealthcheckFunc,
) (*HttpServer, error) {
	server := &HttpServer{
		logger:  logger,
		address: address,
	}

	dump := &metricsDumper{
		logger: logger,
		store:  st,
	}
	routes := []route{
		{path: "/healthcheck", handler: checksHandler(healthChecks), method: "GET", name: "healthcheck_get"},
		{path: "/deepcheck", handler: checksHandler(deepChecks), method: "GET", name: "deepcheck_get"},
		{path: "/metrics.json", handler: dump.metrics, method: "GET", name: "metrics_get"},
	}

	router, err := createRoutes(routes)
	if err != nil {
		return nil, err
	}
	router.NotFoundHandler = server.logRequest(http.HandlerFunc(server.notFound))
	router.Use(server.logRequest)
	server.Router = router

	logger.WithField("address", address).Info("Created server")

	return server, nil
}

func (hs *HttpServer) notFound(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("not found"))
}

func createRoutes(routes []route) (*mux.Router, error) {
	router := mux.NewRouter()

	for _, route := range routes {
		r := router.HandleFunc(route.path, route.handler).Methods(route.method).Name(route.name)
		if err := r.GetError(); err != nil {
			return nil, fmt.Errorf("error creating route %s: %v", route.name, err)
		}
	}

	return router, nil
}

func (hs *HttpServer) logRequest(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logFields := logrus.Fields{
			"srcip": strings.Split(req.RemoteAddr, ":")[0],
			"path":  req.URL.Path,
		}
		if route := mux.CurrentRoute(req); route == nil {
			logFields["method"] = req.Method
		} else {
			logFields["route"] = route.GetName()
		}
		if source := req.Header.Get("X-Forwarded-For"); source != "" {
			logFields["forwarded_for"] = source
		}

		start := time.Now()
		handler.ServeHTTP(w, req)
		dur := time.Since(start)

		logFields["duration"] = float64(dur) / float64(time.Millisecond)
		hs.logger.WithFields(logFields).Debug("request")
	})
}

// Listen binds the server address.
func (hs *HttpServer) Listen() error {
	l, err := net.Listen("tcp", hs.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %v", hs.address, err)
	}
	hs.listener = l
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (hs *HttpServer) Addr() net.Addr {
	if hs.listener == nil {
		return nil
	}
	return hs.listener.Addr()
}

// Run serves requests until ctx is done, then shuts the server down gracefully.
func (hs *HttpServer) Run(ctx context.Context) {
	if hs.listener == nil {
		if err := hs.Listen(); err != nil {
			hs.logger.WithError(err).Error("web server failed")
			return
		}
	}

	server := &http.Server{
		Handler: hs.Router,
	}

	chStopped := make(chan struct{}, 1)
	go hs.waitAndStop(ctx, server, chStopped)

	hs.logger.WithField("address", hs.listener.Addr().String()).Info("listening")

	err := server.Serve(hs.listener)
	if err != http.ErrServerClosed {
		hs.logger.WithError(err).Error("web server failed")
		return
	}

	// Wait for graceful shutdown of existing connections

	select {
	case <-chStopped:
		// happy
	case <-time.After(6 * time.Second):
		hs.logger.Info("timeout waiting for webserver to stop")
	}
}

// waitAndStop will gracefully shut down the Server when the Context passed is cancelled.  It signals
// on chStopped when it is done.
func (hs *HttpServer) waitAndStop(ctx context.Context, server *http.Server, chStopped chan<- struct{}) {
	<-ctx.Done()

	hs.logger.Info("shutting down web server")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := server.Shutdown(timeoutCtx)
	if err != nil {
		hs.logger.WithError(err).Warn("failed to stop web server")
	}
	chStopped <- done
}
