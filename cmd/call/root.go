package call

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/mprpc/cmd/util"
	"github.com/ValentinKolb/mprpc/rpc/client"
	"github.com/ValentinKolb/mprpc/rpc/common"
	"github.com/ValentinKolb/mprpc/rpc/serializer"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	rpcClient *client.Client
	config    *common.ClientConfig
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	for _, cmd := range []*cobra.Command{CallCmd, PerfCmd} {
		util.SetupRPCClientFlags(cmd)
		cmd.PersistentPreRunE = setupClient
	}
}

// setupClient initializes logging and connects the RPC client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	config = util.GetClientConfig()
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcClient, err = client.NewClient(
		*config,
		t,
		serializer.NewMsgpackSerializer(),
		client.WithNotifyHandler(printNotification),
	)
	return err
}

// closeClient closes the shared client. Every RunE defers it, post run hooks do not run after a failed RunE.
func closeClient() {
	if rpcClient == nil {
		return
	}
	if err := rpcClient.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "closing client: %v\n", err)
	}
}

// printNotification writes notifications the peer sends while a call runs to stderr
func printNotification(method string, params []msgpack.RawMessage) {
	rendered := make([]any, len(params))
	for i, p := range params {
		rendered[i] = p
	}
	fmt.Fprintf(os.Stderr, "notification: %s\n", common.RenderCall(method, rendered))
}
