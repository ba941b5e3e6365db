package cmd

import (
	"fmt"
	"os"

	"github.com/findy-network/findy-credex/cmds/demo"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var demoEnvs = map[string]string{
	"formats":          "FORMATS",
	"protocol-version": "PROTOCOL_VERSION",
	"auto-accept":      "AUTO_ACCEPT",
	"connectionless":   "CONNECTIONLESS",
	"subject":          "SUBJECT",
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Runs a credential exchange between two in-process agents",
	Long: `
Runs a credential exchange between two in-process agents and prints the
final records as YAML. The steps the auto-accept policy leaves are done by
the command.

Example
	credex demo --formats indy,sdjwt --auto-accept never
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(demoEnvs, "DEMO")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		try.To(dCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(dCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var dCmd = demo.DefaultValues

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		fmt.Println(err)
	}))

	name := demoCmd.Name()
	flags := demoCmd.Flags()
	flags.StringVar(&dCmd.Formats, "formats", dCmd.Formats, flagInfo("credential formats, empty for all", name, demoEnvs["formats"]))
	flags.StringVar(&dCmd.Version, "protocol-version", dCmd.Version, flagInfo("protocol version v1 or v2", name, demoEnvs["protocol-version"]))
	flags.StringVar(&dCmd.AutoAccept, "auto-accept", dCmd.AutoAccept, flagInfo("never, content-approved or always", name, demoEnvs["auto-accept"]))
	flags.BoolVar(&dCmd.Connectionless, "connectionless", false, flagInfo("exchange without a connection", name, demoEnvs["connectionless"]))
	flags.StringVar(&dCmd.SubjectName, "subject", dCmd.SubjectName, flagInfo("name of the credential subject", name, demoEnvs["subject"]))

	rootCmd.AddCommand(demoCmd)
}
