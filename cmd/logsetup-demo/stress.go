// FILE: lixenwraith/logsetup/cmd/logsetup-demo/stress.go
package main

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lixenwraith/logsetup"
	"github.com/spf13/cobra"
)

func newStressCommand() *cobra.Command {
	var bursts, perBurst, workers, maxMessageSize int
	var rotatePath string

	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Log bursts of random records from a worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rotatePath != "" {
				// Small files force frequent rotation
				if _, err := logsetup.RegisterRotatingFile(logsetup.LevelDebug, rotatePath, 1<<20, 5, logsetup.FormatOptions{}); err != nil {
					return err
				}
			}

			pool, err := logsetup.NewPool("stress", workers)
			if err != nil {
				return err
			}
			defer pool.Release()

			l := logsetup.GetLogger("demo.stress")
			levels := []int64{logsetup.LevelDebug, logsetup.LevelInfo, logsetup.LevelWarn, logsetup.LevelError}
			start := time.Now()

			var wg sync.WaitGroup
			for b := 0; b < bursts; b++ {
				for i := 0; i < perBurst; i++ {
					wg.Add(1)
					burst, seq := b, i
					err := pool.Submit(func() {
						defer wg.Done()
						size := rand.Intn(maxMessageSize) + 1
						l.Log(levels[rand.Intn(len(levels))], fmt.Sprintf("burst=%d seq=%d", burst, seq), strings.Repeat("x", size))
					})
					if err != nil {
						wg.Done()
						return err
					}
				}
			}
			wg.Wait()

			elapsed := time.Since(start)
			stats := logsetup.Default().Stats()
			total := bursts * perBurst
			fmt.Printf("logged %d records in %v (%.0f/s), deliveries=%d failures=%d\n",
				total, elapsed, float64(total)/elapsed.Seconds(), stats.Deliveries, stats.Failures)
			return nil
		},
	}
	cmd.Flags().IntVar(&bursts, "bursts", 100, "number of bursts")
	cmd.Flags().IntVar(&perBurst, "per-burst", 500, "records per burst")
	cmd.Flags().IntVar(&workers, "workers", 64, "pool size")
	cmd.Flags().IntVar(&maxMessageSize, "max-size", 1000, "maximum payload length")
	cmd.Flags().StringVar(&rotatePath, "rotate", "", "also write to this size-rotating file")
	return cmd
}
