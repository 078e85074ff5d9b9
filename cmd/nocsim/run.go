package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/nocsim/datarecording"
	"github.com/sarchlab/nocsim/noc/config"
	"github.com/sarchlab/nocsim/noc/network"
	"github.com/sarchlab/nocsim/noc/router/routers"
	"github.com/sarchlab/nocsim/noc/tracing"
	"github.com/sarchlab/nocsim/sim"
	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation.",
	Long: "`run --config sim.yaml --set router=event` builds the network " +
		"described by the configuration, simulates it and prints a summary.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := readRunOptions(cmd)
		if err != nil {
			return err
		}

		cmd.SilenceUsage = true

		return runSimulation(opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "YAML file with configuration keys")
	cmd.Flags().String("env", "", "dotenv file with configuration overrides")
	cmd.Flags().StringArray("set", nil,
		"override a configuration key, as key=value (repeatable)")
	cmd.Flags().Int("cycles", 0,
		"number of cycles to inject traffic, overrides sim_cycles")
	cmd.Flags().Int("drain", 100000,
		"maximum number of cycles to wait for packets in flight")
	cmd.Flags().String("record", "",
		"record delivered packets into the given SQLite database")
	cmd.Flags().String("trace", "",
		"write every flit delivery into the given file")
	cmd.Flags().StringArray("fault", nil,
		"mark a router output as faulty, as router:output (repeatable)")
}

type fault struct {
	router, output int
}

type runOptions struct {
	cfg         *config.Config
	cycles      int
	drainCycles int
	recordPath  string
	tracePath   string
	faults      []fault
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	flags := cmd.Flags()
	cfg := config.Defaults()

	overrides, err := readOverrides(cmd)
	if err != nil {
		return runOptions{}, err
	}

	for _, k := range overrides.Keys() {
		if !cfg.Has(k) {
			return runOptions{}, fmt.Errorf("%w: unknown key %s",
				config.ErrInvalidValue, k)
		}
	}

	cfg.Merge(overrides)

	cycles, _ := flags.GetInt("cycles")
	if cycles > 0 {
		cfg.Set("sim_cycles", cycles)
	}

	simCycles, err := cfg.GetInt("sim_cycles")
	if err != nil {
		return runOptions{}, err
	}

	opts := runOptions{cfg: cfg, cycles: simCycles}
	opts.drainCycles, _ = flags.GetInt("drain")
	opts.recordPath, _ = flags.GetString("record")
	opts.tracePath, _ = flags.GetString("trace")

	faults, _ := flags.GetStringArray("fault")
	for _, f := range faults {
		parsed, err := parseFault(f)
		if err != nil {
			return runOptions{}, err
		}

		opts.faults = append(opts.faults, parsed)
	}

	return opts, nil
}

// readOverrides collects the configuration file, the env file and the --set
// assignments, later sources taking precedence.
func readOverrides(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	overrides := config.New()

	configFile, _ := flags.GetString("config")
	if configFile != "" {
		err := overrides.LoadYAML(configFile)
		if err != nil {
			return nil, err
		}
	}

	envFile, _ := flags.GetString("env")
	if envFile != "" {
		err := overrides.LoadEnvFile(envFile)
		if err != nil {
			return nil, err
		}
	}

	assignments, _ := flags.GetStringArray("set")
	for _, a := range assignments {
		err := overrides.ParseOverride(a)
		if err != nil {
			return nil, err
		}
	}

	return overrides, nil
}

func parseFault(s string) (fault, error) {
	r, o, found := strings.Cut(s, ":")
	if !found {
		return fault{}, fmt.Errorf("fault %q is not router:output", s)
	}

	routerID, err := strconv.Atoi(r)
	if err != nil {
		return fault{}, fmt.Errorf("fault %q: bad router: %w", s, err)
	}

	output, err := strconv.Atoi(o)
	if err != nil {
		return fault{}, fmt.Errorf("fault %q: bad output: %w", s, err)
	}

	return fault{router: routerID, output: output}, nil
}

func runSimulation(opts runOptions, out io.Writer) error {
	var recorder datarecording.DataRecorder
	if opts.recordPath != "" {
		recorder = datarecording.New(opts.recordPath)
		defer recorder.Close()
	}

	n, err := network.Build(opts.cfg, routers.NewDefaultFactory(), recorder)
	if err != nil {
		return err
	}

	for _, f := range opts.faults {
		err = n.InjectFault(f.router, f.output)
		if err != nil {
			return err
		}
	}

	links := tracing.NewLinkCounter()
	n.AcceptChannelHook(links)

	if opts.tracePath != "" {
		traceFile, err := os.Create(opts.tracePath)
		if err != nil {
			return err
		}
		defer traceFile.Close()

		n.AcceptChannelHook(tracing.NewFlitLogger(log.New(traceFile, "", 0)))
	}

	engine := sim.NewSerialEngine()

	if recorder != nil {
		execRecorder := datarecording.NewExecRecorder(recorder)
		execRecorder.Start()

		for _, k := range opts.cfg.Keys() {
			v, _ := opts.cfg.GetStr(k)
			execRecorder.AddProperty(k, v)
		}

		engine.RegisterSimulationEndHandler(sim.SimulationEndHandlerFunc(
			func(sim.VTimeInSec) { execRecorder.End() }))
	}

	driver := network.NewTickingNetwork(n, engine, 1*sim.GHz, opts.cycles)
	driver.Start()

	err = engine.Run()
	if err != nil {
		return err
	}

	drained := n.Drain(opts.drainCycles)

	fmt.Fprintf(out, "Simulated %d cycles on %d routers\n",
		n.Cycle(), n.NumNodes())
	fmt.Fprintln(out, n.Stats().Summary())

	if !drained {
		fmt.Fprintf(out, "Network did not drain within %d cycles\n",
			opts.drainCycles)
	}

	reportLinks(out, links, n.Cycle())

	reportMemory(out)

	engine.Finished()

	return nil
}

func reportLinks(out io.Writer, links *tracing.LinkCounter, cycles int) {
	busiest := links.Busiest(3)
	if len(busiest) == 0 || cycles == 0 {
		return
	}

	fmt.Fprintln(out, "Busiest links:")

	for _, l := range busiest {
		fmt.Fprintf(out, "  %s: %d flits (%.3f per cycle)\n",
			l.Name, l.Flits, float64(l.Flits)/float64(cycles))
	}
}

func reportMemory(out io.Writer) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return
	}

	fmt.Fprintf(out, "Resident memory: %.1f MB\n",
		float64(mem.RSS)/(1<<20))
}
