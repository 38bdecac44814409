package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/gookit/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/typetrace-dev/typetrace/interp"
	"github.com/typetrace-dev/typetrace/snapshot"
)

var (
	stateFlag  bool
	configFlag string
)

// DumpConfig is the optional TOML display configuration for the dump
// command.
type DumpConfig struct {
	Display DisplayOptions `toml:",omitempty"`
}

type DisplayOptions struct {
	MaxStates  int  `toml:",omitempty"`
	ShowHashes bool `toml:",omitempty"`
}

func loadDumpConfig(path string) (*DumpConfig, error) {
	cfg := &DumpConfig{
		Display: DisplayOptions{MaxStates: 50, ShowHashes: true},
	}
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var dumpCmd = &cobra.Command{
	Use:   "dump SNAPSHOT",
	Short: "Pretty-print a serialized frame snapshot",
	Long: "Reads a parked-frame snapshot (or, with --state, a single frame-state\n" +
		"reference) and prints its contents.",
	Args: cobra.ExactArgs(1),
	Run:  dumpCommand,
}

func init() {
	dumpCmd.Flags().BoolVar(&stateFlag, "state", false, "Treat the file as a single frame-state reference")
	dumpCmd.Flags().StringVar(&configFlag, "config", "", "TOML file with display options")
}

func dumpCommand(cmd *cobra.Command, args []string) {
	cfg, err := loadDumpConfig(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't load display config")
	}
	f, err := os.Open(args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("Couldn't open snapshot file")
	}
	defer f.Close()

	if stateFlag {
		ref := &snapshot.FrameStateRef{}
		if err := ref.Deserialize(f); err != nil {
			log.Fatal().Err(err).Msg("Couldn't decode frame-state reference")
		}
		printStateRef(ref)
		return
	}

	ref := &snapshot.FrameRef{}
	if err := ref.Deserialize(f); err != nil {
		log.Fatal().Err(err).Msg("Couldn't decode frame snapshot")
	}
	printFrameRef(ref, cfg)
}

func printFrameRef(ref *snapshot.FrameRef, cfg *DumpConfig) {
	fmt.Println(color.Cyan.Sprintf("Frame %s", ref.ID))
	fmt.Printf("  Code: %s (%s)\n", ref.Code, ref.File)
	fmt.Printf("  Node: %d\n", ref.Node)
	fmt.Printf("  Parked states: %d\n", len(ref.States))

	offsets := make([]int, 0, len(ref.States))
	for off := range ref.States {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	for i, off := range offsets {
		if cfg.Display.MaxStates > 0 && i >= cfg.Display.MaxStates {
			fmt.Printf("  ... (%d more)\n", len(offsets)-i)
			break
		}
		if cfg.Display.ShowHashes {
			fmt.Printf("  %04d: %016x\n", off, uint64(ref.States[off]))
		} else {
			fmt.Printf("  %04d\n", off)
		}
	}
}

func printStateRef(ref *snapshot.FrameStateRef) {
	fmt.Println(color.Cyan.Sprint("Frame state"))
	fmt.Printf("  Node: %d\n", ref.Node)
	fmt.Printf("  Why: %s\n", interp.Why(ref.Why))
	fmt.Printf("  Exception pending: %v\n", ref.Exception)
	fmt.Printf("  Operand stack (%d): %v\n", len(ref.Stack), ref.Stack)
	for _, b := range ref.Blocks {
		fmt.Printf("  Block: kind=%s handler=%d level=%d\n",
			interp.BlockKind(b.Kind), b.Handler, b.Level)
	}
}
