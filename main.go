// Command wellmap assigns the scenes of stage-scanned plate acquisitions to
// the wells of the plate they were taken from.
//
// Each argument is a metadata document (a JSON dump of the acquisition's
// experiment loops and per-scene frame metadata), a directory of them, or an
// s3://bucket/key reference or prefix.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"wellmap/internal/batch"
	"wellmap/internal/config"
	"wellmap/internal/metrics"
	"wellmap/internal/render"
	"wellmap/internal/source"
	"wellmap/internal/store"
	"wellmap/internal/version"
	"wellmap/internal/wellmap"
)

// options are the command-line settings; non-empty values override the
// config file.
type options struct {
	configPath  string
	jsonOut     bool
	storeDSN    string
	renderPath  string
	metricsPath string
	plateFiles  stringList
	workers     int
	verbose     bool
}

type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var opts options
	flag.StringVar(&opts.configPath, "config", config.DefaultPath(), "Path to the JSON config file")
	flag.BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")
	flag.StringVar(&opts.storeDSN, "store", "", "Save results to a store (sqlite path or postgres:// DSN)")
	flag.StringVar(&opts.renderPath, "render", "", "Render a plate map to this .png or .tif path")
	flag.StringVar(&opts.metricsPath, "metrics", "", "Write Prometheus textfile metrics to this path")
	flag.Var(&opts.plateFiles, "plates", "Plate definition JSON file (repeatable)")
	flag.IntVar(&opts.workers, "workers", 0, "Documents analysed in parallel")
	flag.BoolVar(&opts.verbose, "v", false, "Log each scene assignment")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: wellmap [flags] <document|dir|s3://bucket/key>...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("wellmap"))
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, flag.Args(), os.Stdout); err != nil {
		log.Printf("wellmap: %v", err)
		os.Exit(1)
	}
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if opts.storeDSN != "" {
		cfg.StoreDSN = opts.storeDSN
	}
	if opts.metricsPath != "" {
		cfg.MetricsPath = opts.metricsPath
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	cfg.PlateFiles = append(cfg.PlateFiles, opts.plateFiles...)
	cfg.Verbose = cfg.Verbose || opts.verbose
	return cfg, nil
}

func run(ctx context.Context, opts options, args []string, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("plate catalog: %w", err)
	}
	log.Printf("Plate catalog: %s", strings.Join(catalog.Names(), ", "))

	jobs, err := collectJobs(ctx, cfg, args)
	if err != nil {
		return err
	}
	log.Printf("Analysing %d documents with %d workers", len(jobs), cfg.Workers)

	recorder := metrics.New()
	runner := &batch.Runner{
		Resolver: wellmap.NewResolver(catalog),
		Workers:  cfg.Workers,
		Done: func(o batch.Outcome) {
			plateName, scenes := "", 0
			if o.Err == nil {
				plateName, scenes = o.Result.Plate.Name, len(o.Result.Mapping)
			}
			recorder.Observe(plateName, scenes, o.Err, o.Elapsed)
			logOutcome(o, cfg.Verbose)
		},
	}
	outcomes := runner.Run(ctx, jobs)

	if opts.jsonOut {
		err = batch.WriteJSON(stdout, outcomes)
	} else {
		err = batch.WriteTable(stdout, outcomes)
	}
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	if cfg.StoreDSN != "" {
		if err := saveRuns(ctx, cfg.StoreDSN, outcomes); err != nil {
			return err
		}
	}
	if opts.renderPath != "" {
		if err := renderMaps(opts.renderPath, outcomes); err != nil {
			return err
		}
	}
	if cfg.MetricsPath != "" {
		if err := recorder.WriteTextfile(cfg.MetricsPath); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(outcomes))
	}
	return nil
}

// collectJobs expands every argument into the documents it names. Stores are
// opened once per backend and bucket.
func collectJobs(ctx context.Context, cfg config.Config, args []string) ([]batch.Job, error) {
	stores := make(map[string]source.Store)
	var jobs []batch.Job
	for _, arg := range args {
		ref, err := cfg.ParseRef(arg)
		if err != nil {
			return nil, err
		}
		id := string(ref.Driver) + "/" + ref.Bucket
		st, ok := stores[id]
		if !ok {
			st, err = source.Open(ctx, ref, cfg.S3)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", ref, err)
			}
			stores[id] = st
		}
		keys, err := source.Expand(ctx, st, ref)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", ref, err)
		}
		if len(keys) == 0 {
			log.Printf("No documents under %s", ref)
		}
		for _, key := range keys {
			name := source.Ref{Driver: ref.Driver, Bucket: ref.Bucket, Key: key}.String()
			jobs = append(jobs, batch.Job{Store: st, Key: key, Name: name})
		}
	}
	return jobs, nil
}

func logOutcome(o batch.Outcome, verbose bool) {
	if o.Err != nil {
		log.Printf("%s: FAILED (%s): %v", o.Job.Name, metrics.Classify(o.Err), o.Err)
		return
	}
	res := o.Result
	log.Printf("%s: %s, %d scenes in %s", o.Job.Name, res.Plate, len(res.Mapping), o.Elapsed.Round(time.Microsecond))
	if !verbose {
		return
	}
	for _, scene := range res.Mapping.Scenes() {
		pos := res.ScenePositions[scene]
		xy := res.Positions[pos]
		log.Printf("  scene %d (%s) -> position %d (%.1f, %.1f) -> well %s",
			scene, o.Doc.SceneName(scene), pos, xy.X, xy.Y, res.Mapping[scene])
	}
}

func saveRuns(ctx context.Context, dsn string, outcomes []batch.Outcome) error {
	st, err := store.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	now := time.Now().UTC()
	saved := 0
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		r, err := o.Run(now)
		if err != nil {
			return err
		}
		if err := st.SaveRun(ctx, r); err != nil {
			return fmt.Errorf("save %s: %w", o.Job.Name, err)
		}
		saved++
	}
	log.Printf("Saved %d runs", saved)
	return nil
}

// renderMaps writes one plate map per mapped document. With several
// documents the source's base name is added before the extension.
func renderMaps(path string, outcomes []batch.Outcome) error {
	var mapped []batch.Outcome
	for _, o := range outcomes {
		if o.Err == nil {
			mapped = append(mapped, o)
		}
	}
	for _, o := range mapped {
		out := path
		if len(mapped) > 1 {
			out = renderPathFor(path, o.Job.Key)
		}
		if err := renderMap(out, o); err != nil {
			return fmt.Errorf("render %s: %w", o.Job.Name, err)
		}
		log.Printf("Plate map: %s", out)
	}
	return nil
}

func renderPathFor(path, key string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(key), filepath.Ext(key))
	return strings.TrimSuffix(path, ext) + "-" + base + ext
}

func renderMap(path string, o batch.Outcome) error {
	img, err := render.PlateMap(render.LayerFromResult(o.Result), render.DefaultOptions())
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render.Encode(f, img, render.FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
