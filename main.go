/*
 * adiprobe - Main process.
 *
 * Copyright 2026, adiprobe contributors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cornwell-labs/adiprobe/adierr"
	"github.com/cornwell-labs/adiprobe/chipdb"
	"github.com/cornwell-labs/adiprobe/command/reader"
	"github.com/cornwell-labs/adiprobe/config"
	"github.com/cornwell-labs/adiprobe/flash"
	"github.com/cornwell-labs/adiprobe/hexfile"
	"github.com/cornwell-labs/adiprobe/internal/hexdump"
	"github.com/cornwell-labs/adiprobe/logging"
	"github.com/cornwell-labs/adiprobe/memap"
	"github.com/cornwell-labs/adiprobe/metrics"
	"github.com/cornwell-labs/adiprobe/session"
	"github.com/cornwell-labs/adiprobe/transport"
)

var (
	optConfig      string
	optLogFile     string
	optDebug       bool
	optMetricsAddr string
)

func loadEverything() (*zap.Logger, *chipdb.DB, *metrics.Counters, error) {
	cfg, err := config.Load(optConfig)
	if err != nil {
		return nil, nil, nil, adierr.Wrap("loading configuration", err)
	}
	logPath := optLogFile
	if logPath == "" {
		logPath = cfg.LogFile
	}
	debug := optDebug || cfg.Debug

	var logFile io.Writer
	if logPath != "" {
		f, err := os.Create(logPath)
		if err != nil {
			return nil, nil, nil, adierr.Wrap("opening log file", err)
		}
		logFile = f
	}
	log := logging.New(logFile, debug)

	db := chipdb.New()
	cfg.ApplyChips(db)

	mx, reg := metrics.New()
	metricsAddr := optMetricsAddr
	if metricsAddr == "" {
		metricsAddr = cfg.MetricsAddr
	}
	if metricsAddr != "" {
		go func() {
			if err := metrics.Serve(metricsAddr, reg); err != nil {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	return log, db, mx, nil
}

// attachSession opens the configured transport and runs the full
// bring-up handshake. The mock transport is the only one wired today;
// a --cmsisdap flag belongs here once a real USB-HID backend lands.
func attachSession() (*session.Session, session.Identity, *zap.Logger, error) {
	log, db, mx, err := loadEverything()
	if err != nil {
		return nil, session.Identity{}, nil, err
	}
	t := transport.NewMock()
	s, id, err := session.Attach(t, db, mx, log)
	if err != nil {
		return nil, session.Identity{}, log, adierr.Wrap("attaching to target", err)
	}
	return s, id, log, nil
}

func printIdentity(id session.Identity) {
	fmt.Printf("DP version: %s\n", id.DPVersion)
	fmt.Printf("access ports: %d\n", len(id.APs))
	fmt.Printf("JEP106: cc=0x%02x id=0x%02x part=0x%04x\n", id.JEP106CC, id.JEP106ID, id.Part)
	if id.ChipKnown {
		fmt.Printf("chip: %s\n", id.Chip.Name)
	} else {
		fmt.Println("chip: unknown")
	}
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	return uint32(v), err
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "adiprobe",
		Short: "Host-side ARM ADIv5 debug probe",
	}
	root.PersistentFlags().StringVarP(&optConfig, "config", "c", "adiprobe.yaml", "Configuration file")
	root.PersistentFlags().StringVarP(&optLogFile, "log", "l", "", "Log file")
	root.PersistentFlags().BoolVarP(&optDebug, "debug", "d", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&optMetricsAddr, "metrics-addr", "", "Prometheus metrics listen address")

	root.AddCommand(
		attachCmd(),
		haltCmd(),
		runCmd(),
		stepCmd(),
		resetCmd(),
		readCmd(),
		writeCmd(),
		flashCmd(),
		idCmd(),
		consoleCmd(),
	)
	return root
}

func attachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach",
		Short: "Attach to the target and print its identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			printIdentity(id)
			return nil
		},
	}
}

func haltCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "halt",
		Short: "Halt the core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			if s.Core() == nil {
				return fmt.Errorf("no core handle available")
			}
			return s.Core().Halt()
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Resume the core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			if s.Core() == nil {
				return fmt.Errorf("no core handle available")
			}
			return s.Core().Run()
		},
	}
}

func stepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step",
		Short: "Single-step the halted core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			if s.Core() == nil {
				return fmt.Errorf("no core handle available")
			}
			return s.Core().Step()
		},
	}
}

func resetCmd() *cobra.Command {
	var halt bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the core",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			if s.Core() == nil {
				return fmt.Errorf("no core handle available")
			}
			if halt {
				return s.Core().ResetAndHalt()
			}
			return s.Core().Reset()
		},
	}
	cmd.Flags().BoolVar(&halt, "halt", false, "Catch the reset vector and halt")
	return cmd
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <addr>",
		Short: "Read one 32-bit word of target memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseHex32(args[0])
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", args[0], err)
			}
			s, _, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			v, err := s.ReadWord(addr, memap.Width32)
			if err != nil {
				return err
			}
			fmt.Printf("0x%08x: %s\n", addr, hexdump.Word(v))
			return nil
		},
	}
}

func writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <addr> <value>",
		Short: "Write one 32-bit word of target memory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseHex32(args[0])
			if err != nil {
				return fmt.Errorf("invalid address %q: %w", args[0], err)
			}
			value, err := parseHex32(args[1])
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			s, _, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			return s.WriteWord(addr, memap.Width32, value)
		},
	}
}

func flashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flash <file.hex>",
		Short: "Program an Intel-HEX image to flash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return adierr.Wrap("opening hex image", err)
			}
			defer f.Close()

			s, id, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			if !id.ChipKnown {
				return fmt.Errorf("unknown chip: flash programming requires a known chip profile")
			}

			ctrl := flash.New(s.Engine(), id.Chip.NVMCBase, id.Chip.PageSize, id.Chip.FlashBase)
			r := hexfile.NewReader(f)
			return ctrl.Program(r, func(written int) {
				fmt.Printf("programmed %d bytes\n", written)
			})
		},
	}
}

func idCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id",
		Short: "Print the attached target's identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			printIdentity(id)
			return nil
		},
	}
}

func consoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start an interactive command console",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, id, log, err := attachSession()
			if err != nil {
				return err
			}
			defer s.Close()
			defer log.Sync()
			printIdentity(id)
			reader.ConsoleReader(s, log)
			return nil
		},
	}
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
