// Command sorfield solves a study of 2D electrostatic potential problems by
// successive over-relaxation and writes each solved grid, its solver log and
// optional plots to disk.
//
// Usage:
//
//	sorfield -config config/study.defaults.json -out out -plots
//	sorfield -accelerations 1:1.9:0.1 -epsilons 0.01 -db runs.db
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/banshee-data/sorfield/internal/config"
	"github.com/banshee-data/sorfield/internal/export"
	"github.com/banshee-data/sorfield/internal/fsutil"
	"github.com/banshee-data/sorfield/internal/potential"
	"github.com/banshee-data/sorfield/internal/store"
	"github.com/banshee-data/sorfield/internal/sweep"
	"github.com/banshee-data/sorfield/internal/version"
)

var (
	configPath    = flag.String("config", config.DefaultConfigPath, "Study configuration JSON (empty for built-in defaults)")
	granularities = flag.String("granularities", "", "Divisions per mm: comma-separated (e.g. 1,2) or range min:max:step")
	accelerations = flag.String("accelerations", "", "Acceleration factors: comma-separated (e.g. 1,1.5,1.7) or range min:max:step")
	epsilons      = flag.String("epsilons", "", "Target epsilons: comma-separated (e.g. 0.01,0.001) or range min:max:step")
	outDir        = flag.String("out", "", "Output directory (overrides output_dir)")
	dbPath        = flag.String("db", "", "Run-history sqlite database (overrides database_path)")
	plots         = flag.Bool("plots", false, "Write heatmap PNGs and convergence charts")
	printTables   = flag.Bool("print", false, "Print each solved table to stdout")
	maxIterations = flag.Int("max-iterations", -1, "Iteration cap per solve; 0 is unbounded, -1 keeps the config value")
	strict        = flag.Bool("strict", false, "Reject acceleration outside [1, 2] and non-positive epsilon")
	verbose       = flag.Bool("v", false, "Enable diagnostic logging")
	traceIter     = flag.Bool("trace", false, "Log every relaxation sweep")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("sorfield", version.String())
		return
	}

	setupLogging(os.Stderr, *verbose, *traceIter)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := applyOverrides(cfg, collectOverrides()); err != nil {
		log.Fatalf("Invalid flags: %v", err)
	}

	ctx, stop := interruptContext(context.Background())
	defer stop()

	var stdout io.Writer
	if *printTables {
		stdout = os.Stdout
	}
	if _, err := run(ctx, cfg, stdout); err != nil {
		log.Fatalf("Study %s failed: %v", cfg.GetName(), err)
	}
}

// interruptContext is cancelled by the first SIGINT or SIGTERM. Solve does
// not observe ctx, so signal handling is then released and a second
// interrupt kills the process.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	released := make(chan struct{})
	var once sync.Once
	release := func() {
		once.Do(func() {
			close(released)
			stop()
		})
	}

	go func() {
		<-ctx.Done()
		stop()
		select {
		case <-released:
		default:
			if parent.Err() == nil {
				log.Printf("Interrupted: stopping after the current solve (interrupt again to kill)")
			}
		}
	}()
	return ctx, release
}

// setupLogging sends ops to w and enables the diag and trace streams on request.
func setupLogging(w io.Writer, diag, trace bool) {
	var diagW, traceW io.Writer
	if diag {
		diagW = w
	}
	if trace {
		traceW = w
	}
	potential.SetLogWriters(w, diagW, traceW)
	sweep.SetLogWriters(w, diagW)
	export.SetLogWriters(w, diagW)
	store.SetLogWriters(w, diagW)
}

func loadConfig(path string) (*config.StudyConfig, error) {
	if path == "" {
		return config.EmptyStudyConfig(), nil
	}
	return config.LoadStudyConfig(path)
}

// overrides carries command-line values that replace config fields.
// Empty strings, nil pointers and a negative maxIterations leave the
// config untouched.
type overrides struct {
	granularities string
	accelerations string
	epsilons      string
	outDir        string
	dbPath        string
	plots         *bool
	strict        *bool
	maxIterations int
}

// collectOverrides reads the flags, treating boolean flags as overrides only
// when given explicitly.
func collectOverrides() overrides {
	o := overrides{
		granularities: *granularities,
		accelerations: *accelerations,
		epsilons:      *epsilons,
		outDir:        *outDir,
		dbPath:        *dbPath,
		maxIterations: *maxIterations,
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "plots":
			o.plots = plots
		case "strict":
			o.strict = strict
		}
	})
	return o
}

func applyOverrides(cfg *config.StudyConfig, o overrides) error {
	if o.granularities != "" {
		gs, err := sweep.ParseIntList(o.granularities)
		if err != nil {
			return fmt.Errorf("granularities: %w", err)
		}
		cfg.Granularities = gs
	}

	if o.accelerations != "" || o.epsilons != "" {
		accs, epss := distinctRuns(cfg.GetRuns())
		if o.accelerations != "" {
			v, err := sweep.ParseFloatList(o.accelerations)
			if err != nil {
				return fmt.Errorf("accelerations: %w", err)
			}
			accs = v
		}
		if o.epsilons != "" {
			v, err := sweep.ParseFloatList(o.epsilons)
			if err != nil {
				return fmt.Errorf("epsilons: %w", err)
			}
			epss = v
		}
		cfg.Runs = sweep.Runs(accs, epss)
	}

	if o.outDir != "" {
		cfg.OutputDir = &o.outDir
	}
	if o.dbPath != "" {
		cfg.DatabasePath = &o.dbPath
	}
	if o.plots != nil {
		cfg.Plots = o.plots
	}
	if o.strict != nil {
		cfg.Strict = o.strict
	}
	if o.maxIterations >= 0 {
		n := o.maxIterations
		cfg.MaxIterations = &n
	}

	return cfg.Validate()
}

// distinctRuns splits runs into their distinct accelerations and epsilons,
// in first-seen order.
func distinctRuns(runs []config.RunSpec) (accs, epss []float64) {
	seenA := make(map[float64]bool)
	seenE := make(map[float64]bool)
	for _, r := range runs {
		if !seenA[r.Acceleration] {
			seenA[r.Acceleration] = true
			accs = append(accs, r.Acceleration)
		}
		if !seenE[r.Epsilon] {
			seenE[r.Epsilon] = true
			epss = append(epss, r.Epsilon)
		}
	}
	return accs, epss
}

// run solves the study, exporting to the configured output directory and
// recording to the run history when a database path is set. Tables are
// also printed to stdout when it is non-nil.
func run(ctx context.Context, cfg *config.StudyConfig, stdout io.Writer) ([]sweep.Outcome, error) {
	exporters := []sweep.Exporter{
		export.NewWriter(fsutil.OSFileSystem{}, cfg.GetOutputDir(), cfg.GetPlots()),
	}
	if stdout != nil {
		exporters = append(exporters, export.NewConsole(stdout))
	}

	var recorder sweep.Recorder
	if path := cfg.GetDatabasePath(); path != "" {
		st, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		defer st.Close()
		recorder = st
	}

	cases := sweep.Plan(cfg)
	log.Printf("Running study %s: %d case(s), output in %s", cfg.GetName(), len(cases), cfg.GetOutputDir())

	outcomes, err := sweep.NewRunner(cfg, recorder, exporters...).Run(ctx, cases)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Printf("Interrupted after %d of %d case(s)", len(outcomes), len(cases))
		}
		return outcomes, err
	}

	stopped := 0
	for _, o := range outcomes {
		if o.Err != nil {
			stopped++
		}
	}
	log.Printf("Study %s complete: %d converged, %d stopped early", cfg.GetName(), len(outcomes)-stopped, stopped)
	return outcomes, nil
}
