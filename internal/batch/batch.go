// Package batch resolves the wells of many metadata documents concurrently.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"wellmap/internal/acquisition"
	"wellmap/internal/source"
	"wellmap/internal/store"
	"wellmap/internal/wellmap"
)

// Job is one document to analyse.
type Job struct {
	Store source.Store
	Key   string
	Name  string // Display name, e.g. s3://bucket/key
}

// Outcome is the analysis of one job.
type Outcome struct {
	Job     Job
	Doc     *acquisition.Document
	Result  *wellmap.Result
	Err     error
	Elapsed time.Duration
}

// Runner analyses jobs with a bounded number of workers.
type Runner struct {
	Resolver *wellmap.Resolver
	Workers  int
	// Done, if set, is called from the worker goroutine as each job finishes.
	Done func(Outcome)
}

// Run analyses every job and returns the outcomes in job order.
func (r *Runner) Run(ctx context.Context, jobs []Job) []Outcome {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	resolver := r.Resolver
	if resolver == nil {
		resolver = wellmap.NewResolver(nil)
	}

	outcomes := make([]Outcome, len(jobs))
	inCh := make(chan int, workers*2)

	var wg sync.WaitGroup
	worker := func() {
		defer wg.Done()
		for i := range inCh {
			o := analyze(ctx, resolver, jobs[i])
			outcomes[i] = o
			if r.Done != nil {
				r.Done(o)
			}
		}
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}

feed:
	for i := range jobs {
		select {
		case inCh <- i:
		case <-ctx.Done():
			for j := i; j < len(jobs); j++ {
				outcomes[j] = Outcome{Job: jobs[j], Err: ctx.Err()}
			}
			break feed
		}
	}
	close(inCh)
	wg.Wait()
	return outcomes
}

func analyze(ctx context.Context, resolver *wellmap.Resolver, job Job) (o Outcome) {
	start := time.Now()
	o.Job = job
	defer func() { o.Elapsed = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		o.Err = err
		return o
	}
	doc, err := source.Load(ctx, job.Store, job.Key)
	if err != nil {
		o.Err = err
		return o
	}
	o.Doc = doc
	res, err := wellmap.NewSession(doc.Opener(), resolver).Result()
	if err != nil {
		o.Err = err
		return o
	}
	o.Result = res
	return o
}

// Run converts a successful outcome into a stored run.
func (o Outcome) Run(analyzedAt time.Time) (store.Run, error) {
	if o.Err != nil || o.Result == nil {
		return store.Run{}, fmt.Errorf("%s: no result", o.Job.Name)
	}
	res := o.Result
	run := store.Run{
		Source:     o.Job.Name,
		Plate:      res.Plate.Name,
		AnalyzedAt: analyzedAt,
	}
	for _, scene := range res.Mapping.Scenes() {
		pos := res.ScenePositions[scene]
		xy := res.Positions[pos]
		well := res.Mapping[scene]
		run.Assignments = append(run.Assignments, store.Assignment{
			Scene:     scene,
			SceneName: o.Doc.SceneName(scene),
			Position:  pos,
			XUM:       xy.X,
			YUM:       xy.Y,
			Row:       well.Row,
			Col:       well.Col,
		})
	}
	return run, nil
}
