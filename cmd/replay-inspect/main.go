// Command replay-inspect loads a replay file and prints per-tick
// command counts and state hashes, for debugging recorded sessions
// offline without a live engine.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xpTURN/Lockstep/command"
	"github.com/xpTURN/Lockstep/engine"
	"github.com/xpTURN/Lockstep/fixedpoint"
	"github.com/xpTURN/Lockstep/replay"
	"github.com/xpTURN/Lockstep/simulation"
	"github.com/xpTURN/Lockstep/world"
)

const (
	exitCodeMissingArgument = 1
	exitCodeReadFailed      = 2
	exitCodeDecodeFailed    = 3
)

var (
	printCmds = flag.Bool("cmds", false, "print per-tick command counts")
	hashEvery = flag.Int("hashEvery", 5, "print state hash every N ticks (0 disables)")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: replay-inspect [flags] <replay-file>")
		os.Exit(exitCodeMissingArgument)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read replay file: %v\n", err)
		os.Exit(exitCodeReadFailed)
	}

	registry := command.NewRegistry()
	data, err := replay.Decode(raw, registry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to decode replay: %v\n", err)
		os.Exit(exitCodeDecodeFailed)
	}

	fmt.Printf("session:      %s\n", data.SessionID)
	fmt.Printf("recorded at:  %d\n", data.RecordedAt)
	fmt.Printf("duration:     %dms\n", data.DurationMs)
	fmt.Printf("total ticks:  %d\n", data.TotalTicks)
	fmt.Printf("players:      %d\n", data.PlayerCount)
	fmt.Printf("tick interval: %dms\n", data.TickIntervalMs)
	fmt.Printf("seed:         %d\n", data.RandomSeed)
	fmt.Println()

	sim := simulation.New(simulation.Config{
		MaxSnapshots:   64,
		TickIntervalMs: int64(data.TickIntervalMs),
		Factories: map[world.TypeID]world.Factory{
			world.TypeIDUnit: func() world.Entity { return world.NewUnitEntity(fixedpoint.FromInt(5)) },
		},
	})

	player := replay.NewPlayer(sim, nil)
	player.Load(data)
	player.OnTickPlayed(func(tick int32, cmds []command.Command) {
		if *printCmds {
			fmt.Printf("tick %5d: %d command(s)\n", tick, len(cmds))
		}
		if *hashEvery > 0 && int(tick)%*hashEvery == 0 {
			fmt.Printf("tick %5d: hash=%d\n", tick, sim.StateHash())
		}
	})

	if err := player.Play(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start playback: %v\n", err)
		os.Exit(exitCodeDecodeFailed)
	}
	dt := float64(engine.DefaultConfig().TickIntervalMs) / 1000
	for tick := int32(0); tick <= data.TotalTicks; tick++ {
		if err := player.Update(dt); err != nil {
			fmt.Fprintf(os.Stderr, "playback failed: %v\n", err)
			os.Exit(exitCodeDecodeFailed)
		}
	}
}
