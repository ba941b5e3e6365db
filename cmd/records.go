package cmd

import (
	"fmt"
	"os"

	"github.com/findy-network/findy-credex/cmds/records"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

var recordsEnvs = map[string]string{
	"name":            "NAME",
	"storage-backend": "STORAGE_BACKEND",
	"storage-path":    "STORAGE_PATH",
	"storage-key":     "STORAGE_KEY",
	"thread":          "THREAD",
	"role":            "ROLE",
	"state":           "STATE",
}

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Lists the exchange records of an agent",
	Long: `
Lists the exchange records from the storage of a stopped agent as YAML.

Example
	credex records --name issuer --storage-backend sqlite --state offer-sent
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(recordsEnvs, "RECORDS")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err)

		try.To(rCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To1(rCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var rCmd = records.Cmd{
	Name:           sCmd.Name,
	StorageBackend: "sqlite",
	StoragePath:    sCmd.StoragePath,
}

func init() {
	defer err2.Catch(err2.Err(func(err error) {
		fmt.Println(err)
	}))

	name := recordsCmd.Name()
	flags := recordsCmd.Flags()
	flags.StringVar(&rCmd.Name, "name", rCmd.Name, flagInfo("agent name", name, recordsEnvs["name"]))
	flags.StringVar(&rCmd.StorageBackend, "storage-backend", rCmd.StorageBackend, flagInfo("bolt or sqlite", name, recordsEnvs["storage-backend"]))
	flags.StringVar(&rCmd.StoragePath, "storage-path", rCmd.StoragePath, flagInfo("directory of the storage files", name, recordsEnvs["storage-path"]))
	flags.StringVar(&rCmd.StorageKey, "storage-key", "", flagInfo("bolt storage key, 32 bytes in hex", name, recordsEnvs["storage-key"]))
	flags.StringVar(&rCmd.ThreadID, "thread", "", flagInfo("thread id", name, recordsEnvs["thread"]))
	flags.StringVar(&rCmd.Role, "role", "", flagInfo("holder or issuer", name, recordsEnvs["role"]))
	flags.StringVar(&rCmd.State, "state", "", flagInfo("exchange state", name, recordsEnvs["state"]))

	rootCmd.AddCommand(recordsCmd)
}
