package flood

import (
	"context"
	"fmt"

	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

// Outcome pairs a scene sidecar path with its detection or error
type Outcome struct {
	Path      string
	Detection *Detection
	Err       error
}

type sceneJob struct {
	index int
	path  string
}

// DetectAll loads and detects every scene with Config.Workers workers.
// Outcomes are returned in the order of paths. Once ctx is cancelled no new
// scene is started and the remaining outcomes carry ctx's error.
func (d *Detector) DetectAll(ctx context.Context, paths []string) []Outcome {
	return d.DetectAllProgress(ctx, paths, nil)
}

// DetectAllProgress is DetectAll, calling progress (when not nil) with the
// number of finished scenes each time a worker reports back. progress runs on
// the calling goroutine.
func (d *Detector) DetectAllProgress(ctx context.Context, paths []string, progress func(done int)) []Outcome {
	outcomes := make([]Outcome, len(paths))
	for i, path := range paths {
		outcomes[i] = Outcome{Path: path}
	}

	numWorkers := d.Config.Workers
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobQueue := make(chan sceneJob, numWorkers)
	responseQueue := make(chan sceneJob, numWorkers)
	workerCompleteChan := make(chan bool, numWorkers)

	for i := 0; i < numWorkers; i++ {
		go d.detectWorker(ctx, jobQueue, responseQueue, outcomes, workerCompleteChan)
	}

	// Close the responses once every worker has exited.
	go func() {
		for workersDone := 0; workersDone < numWorkers; workersDone++ {
			<-workerCompleteChan
		}
		close(responseQueue)
	}()

	go func() {
		defer close(jobQueue)
		for i, path := range paths {
			select {
			case jobQueue <- sceneJob{index: i, path: path}:
			case <-ctx.Done():
				return
			}
		}
	}()

	done := 0
	for range responseQueue {
		done++
		if progress != nil {
			progress(done)
		}
	}
	if done < len(paths) {
		util.LogAlert(d.Context, fmt.Sprintf("Batch interrupted after %d of %d scenes: %v", done, len(paths), ctx.Err()))
		for i := range outcomes {
			if outcomes[i].Detection == nil && outcomes[i].Err == nil {
				outcomes[i].Err = ctx.Err()
			}
		}
	}
	return outcomes
}

// detectWorker fills outcomes[job.index]; each index is written by one worker only
func (d *Detector) detectWorker(ctx context.Context, jobs <-chan sceneJob, responses chan<- sceneJob, outcomes []Outcome, completeChan chan<- bool) {
	for job := range jobs {
		outcome := &outcomes[job.index]
		if err := ctx.Err(); err != nil {
			outcome.Err = err
		} else if scene, err := LoadScene(job.path); err != nil {
			outcome.Err = err
		} else {
			outcome.Detection, outcome.Err = d.Detect(ctx, scene)
		}
		if outcome.Err != nil {
			util.LogSimpleErr(d.Context, fmt.Sprintf("Detection failed for %s", job.path), outcome.Err)
		}
		responses <- job
	}
	completeChan <- true
}
