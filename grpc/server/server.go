/*
Package server is the gRPC API of the agency. The ProtocolService of
findy-common-go runs the issue-credential exchanges of the agent which the
JWT user of the call names.
*/
package server

import (
	"context"
	"net"

	pb "github.com/findy-network/findy-common-go/grpc/agency/v1"
	"github.com/findy-network/findy-common-go/rpc"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type Config struct {
	Port int
	// TLSPath is the directory of the server and client certificates,
	// empty serves without TLS.
	TLSPath   string
	JWTSecret string
	// NoAuthorization skips the JWT check. Then the calls are served by
	// DefaultAgent.
	NoAuthorization bool
	DefaultAgent    string

	TestLis *bufconn.Listener
}

// PrepareServe builds the gRPC server. The caller starts it with Serve.
func PrepareServe(c Config) (s *grpc.Server, lis net.Listener, err error) {
	defer err2.Handle(&err, "prepare gRPC server")

	var pki *rpc.PKI
	if c.TLSPath != "" {
		pki = rpc.LoadPKI(c.TLSPath)
	}
	glog.V(1).Infoln("starting gRPC server, port:", c.Port, "tls:", pki != nil)

	return rpc.PrepareServe(&rpc.ServerCfg{
		PKI:             pki,
		Port:            c.Port,
		TestLis:         c.TestLis,
		JWTSecret:       c.JWTSecret,
		NoAuthorization: c.NoAuthorization,
		Register: func(s *grpc.Server) error {
			pb.RegisterProtocolServiceServer(s, &protocolService{defaultAgent: c.DefaultAgent})
			return nil
		},
	})
}

// Serve runs the gRPC server until ctx is done.
func Serve(ctx context.Context, c Config) (err error) {
	defer err2.Handle(&err, "gRPC server")

	s, lis := try.To2(PrepareServe(c))
	go func() {
		<-ctx.Done()
		glog.V(1).Infoln("shutting down gRPC server")
		s.GracefulStop()
	}()
	return s.Serve(lis)
}
