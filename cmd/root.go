package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mprpc/cmd/call"
	"github.com/ValentinKolb/mprpc/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "mprpc",
		Short: "msgpack-rpc client",
		Long: fmt.Sprintf(`mprpc (v%s)

A msgpack-rpc client that multiplexes concurrent calls over a single
tcp or unix socket connection.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mprpc",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mprpc v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(call.CallCmd)
	RootCmd.AddCommand(call.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("log level (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
