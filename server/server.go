/*
Package server encapsulates the http server entry points. The agents of the
agency receive their protocol messages through it.
*/
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/findy-network/findy-credex/agent/agency"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/logctx"
	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/rs/zerolog"
)

// ProtocolPath is the default URL path of the agent endpoints:
// /a2a/<agent name>
const ProtocolPath = "a2a"

// maxMessageSize limits the read of the request body.
const maxMessageSize = 4 << 20

// Config of the http server.
type Config struct {
	Port         uint
	ProtocolPath string
	// Logger is given to the inbound processing of every message.
	Logger zerolog.Logger
}

// StartHTTPServer starts the http server. The function blocks when it
// success.
func StartHTTPServer(ctx context.Context, c Config) error {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%v", c.Port),
		Handler: NewMux(c),
	}
	go func() {
		<-ctx.Done()
		glog.V(1).Infoln("shutting down HTTP server")
		if err := server.Shutdown(context.Background()); err != nil {
			glog.Errorln("http shutdown:", err)
		}
	}()
	if glog.V(1) {
		glog.Infof("HTTP Server on port: %v with handle pattern: \"/%s/\"",
			c.Port, protocolPath(c))
	}
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// NewMux returns the handler of the server's routes.
func NewMux(c Config) *http.ServeMux {
	mux := http.NewServeMux()
	pattern := fmt.Sprintf("/%s/", protocolPath(c))
	mux.Handle(pattern, &transport{prefix: pattern, logger: c.Logger})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		if glog.V(5) {
			glog.Info("/version requested")
		}
		_, _ = w.Write([]byte(utils.Version))
	})
	return mux
}

// Endpoint returns the endpoint of the named agent under the base address.
func Endpoint(baseAddr, path, name string) string {
	if path == "" {
		path = ProtocolPath
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(baseAddr, "/"), path, name)
}

func protocolPath(c Config) string {
	if c.ProtocolPath == "" {
		return ProtocolPath
	}
	return strings.Trim(c.ProtocolPath, "/")
}

type transport struct {
	prefix string
	logger zerolog.Logger
}

// ServeHTTP accepts the wire envelope for the agent named by the path. The
// message is processed after the response, the sender learns the results
// from our replies.
func (t *transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer err2.Catch(err2.Err(func(err error) {
		glog.Errorln("error:", err)
		errorResponse(w, http.StatusInternalServerError)
	}))

	if r.Method != http.MethodPost {
		errorResponse(w, http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, t.prefix)
	receiver := agency.Handler(name)
	if name == "" || strings.Contains(name, "/") || receiver == nil {
		glog.V(3).Infoln("------ no agent for path:", r.URL.Path)
		errorResponse(w, http.StatusNotFound)
		return
	}
	glog.V(1).Infoln("===== TRANSPORT =====", r.Method, r.URL.Path)

	body := try.To1(io.ReadAll(io.LimitReader(r.Body, maxMessageSize)))
	var wire comm.Wire
	if err := json.Unmarshal(body, &wire); err != nil || len(wire.Message) == 0 {
		glog.V(2).Infoln("bad wire envelope:", err)
		errorResponse(w, http.StatusBadRequest)
		return
	}

	ctx := logctx.With(logctx.Into(context.Background(), t.logger), "agent", name)
	go receive(ctx, receiver, &wire)

	w.WriteHeader(http.StatusAccepted)
}

func receive(ctx context.Context, r comm.Receiver, wire *comm.Wire) {
	defer err2.Catch(err2.Err(func(err error) {
		logctx.From(ctx).Error().Err(err).Msg("inbound transport")
	}))
	try.To(r.Receive(ctx, wire.ConnectionID, wire.Message))
}

func errorResponse(w http.ResponseWriter, status int) {
	glog.V(2).Infoln("Returning", status)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fmt.Sprintf("%d - %s", status, http.StatusText(status))))
}
