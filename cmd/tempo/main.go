// Command tempo is a UCI chess engine.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/hailam/tempo/internal/engine"
	"github.com/hailam/tempo/internal/uci"
)

func main() {
	cpuprofile := flag.String("cpuprofile", "", "write a CPU profile to this file")
	hash := flag.Int("hash", engine.DefaultHashMB, "transposition table size in MB")
	threads := flag.Int("threads", engine.DefaultThreads, "number of search threads")
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cannot create profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "cannot start profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	eng := engine.New()
	eng.SetHashSize(*hash)
	eng.SetThreads(*threads)

	handler := uci.New(eng, os.Stdout)
	if err := handler.Run(os.Stdin); err != nil {
		fmt.Fprintf(os.Stderr, "uci: %v\n", err)
		os.Exit(1)
	}
}
