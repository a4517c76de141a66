package call

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mprpc/cmd/util"
	"github.com/ValentinKolb/mprpc/rpc/client"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var (
	// PerfCmd issues the same call many times and reports throughput and latency
	PerfCmd = &cobra.Command{
		Use:   "perf [method] [args...]",
		Short: "Performance testing tool for msgpack-rpc peers",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPerf,
	}
)

func init() {
	key := "calls"
	PerfCmd.Flags().Int(key, 10000, util.WrapString("Total number of calls to issue"))
	key = "concurrency"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of goroutines issuing calls, i.e. the maximum number of calls in flight"))
	key = "rate"
	PerfCmd.Flags().Float64(key, 0, util.WrapString("Maximum calls per second (0 = unlimited)"))
	key = "metrics"
	PerfCmd.Flags().Bool(key, false, util.WrapString("Print the client metrics in Prometheus text format after the run"))
}

// perfResult holds the outcome of a perf run
type perfResult struct {
	ok       int64
	rpcErrs  int64
	elapsed  time.Duration
	timer    gometrics.Timer
	firstErr error
}

func runPerf(cmd *cobra.Command, args []string) error {
	defer closeClient()

	calls := viper.GetInt("calls")
	concurrency := viper.GetInt("concurrency")
	if calls <= 0 || concurrency <= 0 {
		return fmt.Errorf("calls and concurrency must be positive")
	}

	limit := rate.Inf
	if r := viper.GetFloat64("rate"); r > 0 {
		limit = rate.Limit(r)
	}

	method, params := args[0], util.ParseArgs(args[1:])

	fmt.Println("Performance testing tool for msgpack-rpc peers")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Calls: %d, Concurrency: %d, Rate: %s\n", calls, concurrency, formatRate(limit))
	fmt.Println()

	res := benchmark(cmd.Context(), rpcClient, method, params, calls, concurrency, rate.NewLimiter(limit, 1), config.Timeout())
	printPerfResult(method, res)

	if viper.GetBool("metrics") {
		fmt.Println()
		rpcClient.WritePrometheus(os.Stdout)
	}

	return res.firstErr
}

// benchmark issues calls from concurrency goroutines until calls calls were made.
// A transport or timeout error stops the run, error responses are only counted.
func benchmark(
	ctx context.Context,
	c *client.Client,
	method string,
	params []any,
	calls, concurrency int,
	limiter *rate.Limiter,
	timeout time.Duration,
) perfResult {
	res := perfResult{timer: gometrics.NewTimer()}
	var issued, ok, rpcErrs atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	start := time.Now()

	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for issued.Add(1) <= int64(calls) {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}

				callCtx, cancel := gctx, context.CancelFunc(func() {})
				if timeout > 0 {
					callCtx, cancel = context.WithTimeout(gctx, timeout)
				}

				t := time.Now()
				call, err := c.Invoke(callCtx, method, params...)
				cancel()
				if err != nil {
					return err
				}
				res.timer.UpdateSince(t)

				if call.Status() == client.StatusErrored {
					rpcErrs.Add(1)
				} else {
					ok.Add(1)
				}
			}
			return nil
		})
	}

	res.firstErr = g.Wait()
	res.elapsed = time.Since(start)
	res.ok, res.rpcErrs = ok.Load(), rpcErrs.Load()
	return res
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func formatRate(limit rate.Limit) string {
	if limit == rate.Inf {
		return "unlimited"
	}
	return fmt.Sprintf("%.0f/sec", float64(limit))
}

// printPerfResult prints the result of a perf run in a formatted way
func printPerfResult(method string, res perfResult) {
	done := res.ok + res.rpcErrs
	if done == 0 {
		fmt.Printf("%-20sno calls completed\n", method)
		return
	}

	opsPerSec := float64(done) / res.elapsed.Seconds()
	ps := res.timer.Percentiles([]float64{0.5, 0.9, 0.99})

	fmt.Printf("%-20s%d calls in %s\t%.0f calls/sec\n", method, done, res.elapsed.Round(time.Millisecond), opsPerSec)
	fmt.Printf("%-20s%d ok, %d error responses\n", "", res.ok, res.rpcErrs)
	fmt.Printf("%-20smin %s, mean %s, max %s\n", "latency",
		time.Duration(res.timer.Min()), time.Duration(res.timer.Mean()), time.Duration(res.timer.Max()))
	fmt.Printf("%-20sp50 %s, p90 %s, p99 %s\n", "",
		time.Duration(ps[0]), time.Duration(ps[1]), time.Duration(ps[2]))
	if res.firstErr != nil {
		fmt.Printf("%-20s%v\n", "stopped", res.firstErr)
	}
}
