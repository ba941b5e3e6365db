/*
Package agency is the serve command: it starts an agent of the agency with
its inbound transports, the gRPC API and the scheduled report of the
pending exchanges.
*/
package agency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/findy-network/findy-credex/agent/agency"
	"github.com/findy-network/findy-credex/agent/comm"
	"github.com/findy-network/findy-credex/agent/storage/cfg"
	"github.com/findy-network/findy-credex/agent/utils"
	"github.com/findy-network/findy-credex/cmds"
	grpcserver "github.com/findy-network/findy-credex/grpc/server"
	"github.com/findy-network/findy-credex/protocol/issuecredential/data"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy"
	"github.com/findy-network/findy-credex/protocol/issuecredential/format/indy/libindy"
	"github.com/findy-network/findy-credex/server"
	_ "github.com/findy-network/findy-wrapper-go/addons" // Install ledger plugins
	"github.com/go-co-op/gocron"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/nats-io/nats.go"
)

type Cmd struct {
	Name         string
	HostAddr     string
	ServerPort   uint
	ProtocolPath string

	StorageBackend string
	StoragePath    string
	StorageKey     string

	AutoAccept string
	Formats    string

	NATSURL     string
	ReportTime  string
	HTTPTimeout time.Duration

	// GRPCPort zero disables the gRPC API.
	GRPCPort    int
	GRPCTLSPath string
	JWTSecret   string
	GRPCNoAuth  bool

	LogLevel  string
	LogPretty bool

	IndyWallet       string
	IndyWalletKey    string
	IndyPool         string
	IndyDID          string
	IndyMasterSecret string

	agent  *agency.Agent
	wallet *libindy.Wallet
	nc     *nats.Conn
	natsRx *comm.NATSReceiver
	cron   *gocron.Scheduler
}

// DefaultValues are the defaults of the flags.
var DefaultValues = Cmd{
	Name:           "credex",
	HostAddr:       "http://localhost:8080",
	ServerPort:     8080,
	ProtocolPath:   server.ProtocolPath,
	StorageBackend: string(cfg.BackendMemory),
	StoragePath:    utils.DataDir(),
	AutoAccept:     string(data.AutoAcceptNever),
	ReportTime:     "03:00",
	HTTPTimeout:    utils.HTTPReqTimeout,
	LogLevel:       "info",
	IndyPool:       "FINDY_MEM_LEDGER",
}

func (c *Cmd) Validate() error {
	if c.Name == "" || strings.Contains(c.Name, "/") {
		return errors.New("agent name cannot be empty or contain '/'")
	}
	if c.HostAddr == "" {
		return errors.New("host address cannot be empty")
	}
	if c.ServerPort == 0 {
		return errors.New("server port cannot be zero")
	}
	if c.ProtocolPath == "" {
		return errors.New("protocol path cannot be empty")
	}
	switch cfg.Backend(c.StorageBackend) {
	case cfg.BackendMemory:
	case cfg.BackendBolt:
		if len(c.StorageKey) != 64 {
			return errors.New("bolt storage needs 32 bytes key in hex")
		}
	case cfg.BackendSQLite:
		if c.StoragePath == "" {
			return errors.New("sqlite storage needs a path")
		}
	default:
		return fmt.Errorf("%w: storage backend %q", cmds.ErrInvalid, c.StorageBackend)
	}
	if err := cmds.ValidateAutoAccept(data.AutoAccept(c.AutoAccept)); err != nil {
		return err
	}
	if _, err := cmds.ParseFormats(c.Formats); err != nil {
		return err
	}
	if c.ReportTime != "" {
		if err := cmds.ValidateTime(c.ReportTime); err != nil {
			return err
		}
	}
	if c.GRPCPort < 0 {
		return errors.New("gRPC port cannot be negative")
	}
	if c.GRPCPort != 0 && !c.GRPCNoAuth && c.JWTSecret == "" {
		return errors.New("gRPC API needs a JWT secret or no authorization")
	}
	if c.IndyWallet != "" && c.IndyWalletKey == "" {
		return errors.New("indy wallet key cannot be empty")
	}
	return nil
}

func (c *Cmd) Exec(_ io.Writer) (r cmds.Result, err error) {
	return nil, StartAgency(context.Background(), c)
}

// Endpoint is the endpoint of the agent seen from the internet.
func (c *Cmd) Endpoint() string {
	if c.NATSURL != "" {
		return comm.NATSScheme + "://credex." + c.Name
	}
	return server.Endpoint(c.HostAddr, c.ProtocolPath, c.Name)
}

func (c *Cmd) Setup(ctx context.Context) (err error) {
	defer err2.Handle(&err, "setup")

	utils.Settings.SetVersionInfo("credex v. " + utils.Version)
	utils.Settings.SetTimeout(c.HTTPTimeout)
	c.printStartupArgs()

	var ic indy.Config
	if c.IndyWallet != "" {
		c.wallet = try.To1(libindy.Open(ctx, libindy.OpenConfig{
			WalletName:   c.IndyWallet,
			WalletKey:    c.IndyWalletKey,
			PoolName:     c.IndyPool,
			DID:          c.IndyDID,
			MasterSecret: c.IndyMasterSecret,
		}))
		ic = indy.Config{Issuer: c.wallet, Holder: c.wallet, Ledger: c.wallet, ProverDID: c.IndyDID}
	}

	c.agent = try.To1(agency.New(agency.Config{
		Name:     c.Name,
		Endpoint: c.Endpoint(),
		Storage: cfg.AgentStorage{
			Backend:  cfg.Backend(c.StorageBackend),
			AgentID:  c.Name,
			AgentKey: c.StorageKey,
			FilePath: c.StoragePath,
		},
		AutoAccept: data.AutoAccept(c.AutoAccept),
		Formats:    try.To1(cmds.ParseFormats(c.Formats)),
		Indy:       ic,
	}))

	if c.NATSURL != "" {
		c.nc = try.To1(comm.DialNATS(c.NATSURL, c.Name))
		c.agent.Outbound.Register(&comm.NATSSender{Conn: c.nc}, comm.NATSScheme)
		c.natsRx = &comm.NATSReceiver{Conn: c.nc}
		try.To(c.natsRx.Listen(c.logContext(ctx), c.agent.Endpoint, c.agent))
	}
	return nil
}

func (c *Cmd) logContext(ctx context.Context) context.Context {
	return cmds.Logger(os.Stderr, c.LogLevel, c.LogPretty).WithContext(ctx)
}

func (c *Cmd) Run(ctx context.Context) (err error) {
	defer err2.Handle(&err, "run")

	c.startReportTask(ctx)
	c.startGRPCServer(ctx)
	try.To(server.StartHTTPServer(ctx, server.Config{
		Port:         c.ServerPort,
		ProtocolPath: c.ProtocolPath,
		Logger:       cmds.Logger(os.Stderr, c.LogLevel, c.LogPretty),
	}))
	return nil
}

func (c *Cmd) startGRPCServer(ctx context.Context) {
	if c.GRPCPort == 0 {
		return
	}
	go func() {
		err := grpcserver.Serve(ctx, c.grpcConfig())
		if err != nil {
			glog.Errorln("gRPC server:", err)
		}
	}()
}

// grpcConfig serves the agent of the command to the calls without a JWT
// user.
func (c *Cmd) grpcConfig() grpcserver.Config {
	return grpcserver.Config{
		Port:            c.GRPCPort,
		TLSPath:         c.GRPCTLSPath,
		JWTSecret:       c.JWTSecret,
		NoAuthorization: c.GRPCNoAuth,
		DefaultAgent:    c.Name,
	}
}

func (c *Cmd) startReportTask(ctx context.Context) {
	if c.ReportTime == "" {
		return
	}
	c.cron = gocron.NewScheduler(time.Now().Location())
	glog.V(1).Infoln("pending exchange report time:", c.ReportTime)
	_, err := c.cron.Every(1).Day().At(c.ReportTime).Do(func() {
		if err := LogPending(ctx, c.agent); err != nil {
			glog.Warningln("pending exchange report:", err)
		}
	})
	if err != nil {
		glog.Warningln("report task start error:", err)
		return
	}
	c.cron.StartAsync()
}

// StartAgency runs the agent until ctx is done.
func StartAgency(ctx context.Context, serveCmd *Cmd) (err error) {
	defer err2.Handle(&err)

	defer serveCmd.closeAll()
	try.To(serveCmd.Setup(ctx))
	try.To(serveCmd.Run(ctx))
	return nil
}

func (c *Cmd) printStartupArgs() {
	fmt.Println(
		"Agent:", c.Name,
		"\nEndpoint:", c.Endpoint(),
		"\nVersion:", utils.Settings.VersionInfo(),
		"\nStorage:", c.StorageBackend, c.StoragePath,
		"\nServer port:", c.ServerPort,
		"\ngRPC port:", c.GRPCPort)
}

func (c *Cmd) closeAll() {
	if c.cron != nil {
		c.cron.Stop()
	}
	if c.natsRx != nil {
		if err := c.natsRx.Close(); err != nil {
			glog.Warningln("nats receiver close:", err)
		}
	}
	if c.nc != nil {
		c.nc.Close()
	}
	if c.agent != nil {
		if err := c.agent.Close(); err != nil {
			glog.Warningln("agent close:", err)
		}
	}
	if c.wallet != nil {
		if err := c.wallet.Close(); err != nil {
			glog.Warningln("indy wallet close:", err)
		}
	}
}
