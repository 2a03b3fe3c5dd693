// Command rv32im is the driver for the simulator and disassembler: it
// loads an image, then either runs it or lists its disassembly.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rv32im/sim/config"
	"github.com/rv32im/sim/internal/disasm"
	"github.com/rv32im/sim/internal/loader"
	"github.com/rv32im/sim/internal/rv32"
	"github.com/rv32im/sim/internal/symtab"
	"github.com/rv32im/sim/internal/traceui"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rv32im",
		Short: "RV32IM instruction-set simulator and disassembler",
	}
	root.AddCommand(newRunCmd(), newDisasmCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		entry      string
		elfImage   bool
		symbolFile string
		traceFlag  bool
		traceFile  string
		tui        bool
	)

	cmd := &cobra.Command{
		Use:   "run <image>",
		Short: "Load and run a program image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			mem := rv32.NewFlatMemory(1 << 24)
			var (
				startAddr uint32
				symbols   *symtab.Table
			)

			if elfImage {
				e, syms, err := loader.LoadELF32(mem, args[0])
				if err != nil {
					return err
				}
				startAddr, symbols = e, syms
			} else {
				if entry == "" {
					entry = cfg.Execution.DefaultEntry
				}
				addr, err := parseAddr(entry)
				if err != nil {
					return fmt.Errorf("invalid --entry: %w", err)
				}
				if err := loader.LoadFlatFile(mem, addr, args[0]); err != nil {
					return err
				}
				startAddr = addr
			}

			if symbolFile != "" {
				f, err := os.Open(symbolFile)
				if err != nil {
					return err
				}
				defer f.Close()
				symbols, err = symtab.Load(f)
				if err != nil {
					return err
				}
			}

			var engineSymbols disasm.Symbols
			if symbols != nil {
				engineSymbols = symbols
			}
			engine := rv32.NewEngine(mem, engineSymbols)
			engine.Stdin = cmd.InOrStdin()
			engine.Stdout = cmd.OutOrStdout()

			var viewer *traceui.Viewer
			if tui {
				viewer = traceui.New()
				engine.Trace = viewer
				engine.AfterStep = func() {
					regs, pc := engine.Snapshot()
					viewer.UpdateRegisters(regs, pc)
				}
			} else if traceFlag || cfg.Trace.Enabled {
				out := cmd.OutOrStdout()
				if traceFile != "" {
					f, err := os.Create(traceFile)
					if err != nil {
						return err
					}
					defer f.Close()
					out = f
				}
				engine.Trace = out
			}

			runErr := make(chan error, 1)
			run := func() {
				_, err := engine.Run(startAddr)
				if viewer != nil {
					viewer.Stop()
				}
				runErr <- err
			}

			if viewer != nil {
				go run()
				if err := viewer.Run(); err != nil {
					return err
				}
				return <-runErr
			}

			run()
			if err := <-runErr; err != nil {
				var fe *rv32.FatalError
				if isFatal(err, &fe) {
					fmt.Fprintln(cmd.ErrOrStderr(), fe.Error())
					os.Exit(1)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "", "entry address for a flat image (default from config)")
	cmd.Flags().BoolVar(&elfImage, "elf", false, "treat the image as an ELF32 executable")
	cmd.Flags().StringVar(&symbolFile, "symbols", "", "plain-text symbol file to load")
	cmd.Flags().BoolVar(&traceFlag, "trace", false, "enable instruction trace")
	cmd.Flags().StringVar(&traceFile, "trace-file", "", "write trace output to this file instead of stdout")
	cmd.Flags().BoolVar(&tui, "tui", false, "launch the live register/trace viewer")

	return cmd
}

func newDisasmCmd() *cobra.Command {
	var (
		entry      string
		elfImage   bool
		symbolFile string
		length     int
	)

	cmd := &cobra.Command{
		Use:   "disasm <image>",
		Short: "Print a linear disassembly listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mem := rv32.NewFlatMemory(1 << 24)
			var (
				base    uint32
				size    uint32
				symbols *symtab.Table
			)

			if elfImage {
				e, syms, err := loader.LoadELF32(mem, args[0])
				if err != nil {
					return err
				}
				base, symbols = e, syms
				size = uint32(length)
			} else {
				addr, err := parseAddr(entry)
				if err != nil {
					return fmt.Errorf("invalid --entry: %w", err)
				}
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				mem.LoadAt(addr, data)
				base = addr
				size = uint32(len(data))
			}

			if symbolFile != "" {
				f, err := os.Open(symbolFile)
				if err != nil {
					return err
				}
				defer f.Close()
				symbols, err = symtab.Load(f)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			var syms disasm.Symbols
			if symbols != nil {
				syms = symbols
			}
			for addr := base; addr < base+size; addr += 4 {
				word := mem.ReadWord(addr)
				fmt.Fprintf(out, "%8x:\t%08x\t%s\n", addr, word, disasm.Disassemble(addr, word, syms))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&entry, "entry", "0x0", "base address for a flat image")
	cmd.Flags().BoolVar(&elfImage, "elf", false, "treat the image as an ELF32 executable")
	cmd.Flags().StringVar(&symbolFile, "symbols", "", "plain-text symbol file to load")
	cmd.Flags().IntVar(&length, "length", 256, "number of bytes to disassemble from an ELF entry point")

	return cmd
}

func parseAddr(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	return uint32(v), err
}

func isFatal(err error, target **rv32.FatalError) bool {
	fe, ok := err.(*rv32.FatalError)
	if ok {
		*target = fe
	}
	return ok
}
