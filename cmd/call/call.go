package call

import (
	"context"
	"fmt"

	"github.com/ValentinKolb/mprpc/cmd/util"
	"github.com/spf13/cobra"
)

var (
	// CallCmd issues a single call and prints its result
	CallCmd = &cobra.Command{
		Use:   "call [method] [args...]",
		Short: "Calls a method on the peer and prints the result",
		Long: `Calls a method on the peer and prints the result as JSON.

Every argument is parsed as JSON (e.g. 42, "text", [1,2], {"a":1}).
Arguments that are not valid JSON are sent as plain strings.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCall,
	}
)

func init() {
	CallCmd.Flags().Bool("describe", false, util.WrapString("Print the call with its arguments and outcome instead of the JSON result"))
}

func runCall(cmd *cobra.Command, args []string) error {
	defer closeClient()

	describe, _ := cmd.Flags().GetBool("describe")

	ctx := cmd.Context()
	if timeout := config.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	call, err := rpcClient.Invoke(ctx, args[0], util.ParseArgs(args[1:])...)
	if err != nil {
		return err
	}

	if describe {
		fmt.Println(call.String())
		return nil
	}

	var result any
	if err := call.Decode(&result); err != nil {
		return err
	}

	out, err := util.FormatJSON(result)
	if err != nil {
		return fmt.Errorf("result of %s is not representable as JSON: %w", call.Label(), err)
	}
	fmt.Println(out)
	return nil
}
