package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/findy-network/findy-credex/cmds/agency"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var serveEnvs = map[string]string{
	"name":               "NAME",
	"host-address":       "HOST_ADDRESS",
	"server-port":        "SERVER_PORT",
	"protocol-path":      "PROTOCOL_PATH",
	"storage-backend":    "STORAGE_BACKEND",
	"storage-path":       "STORAGE_PATH",
	"storage-key":        "STORAGE_KEY",
	"auto-accept":        "AUTO_ACCEPT",
	"formats":            "FORMATS",
	"nats-url":           "NATS_URL",
	"report-time":        "REPORT_TIME",
	"http-timeout":       "HTTP_TIMEOUT",
	"grpc-port":          "GRPC_PORT",
	"grpc-tls-path":      "GRPC_TLS_PATH",
	"grpc-jwt-secret":    "GRPC_JWT_SECRET",
	"grpc-no-auth":       "GRPC_NO_AUTH",
	"indy-wallet":        "INDY_WALLET",
	"indy-wallet-key":    "INDY_WALLET_KEY",
	"indy-pool":          "INDY_POOL",
	"indy-did":           "INDY_DID",
	"indy-master-secret": "INDY_MASTER_SECRET",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the agent",
	Long: `
Starts the agent with its HTTP endpoint. The agent's endpoint is
<host-address>/<protocol-path>/<name>, or the NATS subject credex.<name>
when the NATS URL is given.

Example
	credex serve \
		--name issuer \
		--host-address https://agent.example.com \
		--storage-backend sqlite \
		--auto-accept content-approved
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(serveEnvs, "SERVE")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		sCmd.LogLevel = rootFlags.logLevel
		sCmd.LogPretty = rootFlags.logPretty
		try.To(sCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			try.To(agency.StartAgency(ctx, &sCmd))
		}
		return nil
	},
}

var sCmd = agency.DefaultValues

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		fmt.Println(err)
	}))

	name := serveCmd.Name()
	flags := serveCmd.Flags()
	flags.StringVar(&sCmd.Name, "name", sCmd.Name, flagInfo("agent name, the last part of the endpoint path", name, serveEnvs["name"]))
	flags.StringVar(&sCmd.HostAddr, "host-address", sCmd.HostAddr, flagInfo("base address of the endpoint seen from the internet", name, serveEnvs["host-address"]))
	flags.UintVar(&sCmd.ServerPort, "server-port", sCmd.ServerPort, flagInfo("HTTP server port", name, serveEnvs["server-port"]))
	flags.StringVar(&sCmd.ProtocolPath, "protocol-path", sCmd.ProtocolPath, flagInfo("URL path of the agent endpoints", name, serveEnvs["protocol-path"]))
	flags.StringVar(&sCmd.StorageBackend, "storage-backend", sCmd.StorageBackend, flagInfo("memory, bolt or sqlite", name, serveEnvs["storage-backend"]))
	flags.StringVar(&sCmd.StoragePath, "storage-path", sCmd.StoragePath, flagInfo("directory of the storage files", name, serveEnvs["storage-path"]))
	flags.StringVar(&sCmd.StorageKey, "storage-key", "", flagInfo("bolt storage key, 32 bytes in hex", name, serveEnvs["storage-key"]))
	flags.StringVar(&sCmd.AutoAccept, "auto-accept", sCmd.AutoAccept, flagInfo("never, content-approved or always", name, serveEnvs["auto-accept"]))
	flags.StringVar(&sCmd.Formats, "formats", "", flagInfo("enabled credential formats, empty for all", name, serveEnvs["formats"]))
	flags.StringVar(&sCmd.NATSURL, "nats-url", "", flagInfo("NATS server URL for the NATS transport", name, serveEnvs["nats-url"]))
	flags.StringVar(&sCmd.ReportTime, "report-time", sCmd.ReportTime, flagInfo("daily time of the pending exchange report HH:MM[:SS], empty disables", name, serveEnvs["report-time"]))
	flags.DurationVar(&sCmd.HTTPTimeout, "http-timeout", sCmd.HTTPTimeout, flagInfo("timeout of the outbound HTTP requests", name, serveEnvs["http-timeout"]))
	flags.IntVar(&sCmd.GRPCPort, "grpc-port", sCmd.GRPCPort, flagInfo("gRPC server port, zero disables", name, serveEnvs["grpc-port"]))
	flags.StringVar(&sCmd.GRPCTLSPath, "grpc-tls-path", "", flagInfo("directory of the gRPC server and client certificates, empty disables TLS", name, serveEnvs["grpc-tls-path"]))
	flags.StringVar(&sCmd.JWTSecret, "grpc-jwt-secret", "", flagInfo("secure string for JWT token validation", name, serveEnvs["grpc-jwt-secret"]))
	flags.BoolVar(&sCmd.GRPCNoAuth, "grpc-no-auth", sCmd.GRPCNoAuth, flagInfo("serve the gRPC calls by this agent without JWT", name, serveEnvs["grpc-no-auth"]))
	flags.StringVar(&sCmd.IndyWallet, "indy-wallet", "", flagInfo("indy wallet name, enables indy format", name, serveEnvs["indy-wallet"]))
	flags.StringVar(&sCmd.IndyWalletKey, "indy-wallet-key", "", flagInfo("indy wallet raw key", name, serveEnvs["indy-wallet-key"]))
	flags.StringVar(&sCmd.IndyPool, "indy-pool", sCmd.IndyPool, flagInfo("indy ledger pool name", name, serveEnvs["indy-pool"]))
	flags.StringVar(&sCmd.IndyDID, "indy-did", "", flagInfo("DID of the indy wallet", name, serveEnvs["indy-did"]))
	flags.StringVar(&sCmd.IndyMasterSecret, "indy-master-secret", "", flagInfo("indy master secret id of the holder", name, serveEnvs["indy-master-secret"]))

	rootCmd.AddCommand(serveCmd)
}
