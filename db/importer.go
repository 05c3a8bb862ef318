package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/raviraj-dave96/Compoundflood-road-damage/flood"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

// Messages understood by ImportWhile
const (
	BeginIngestJobMessage = "begin"
	AbortIngestJobMessage = "abort"
)

const statusTimeLayout = "Mon Jan _2 15:04:05 2006"

//ConnectionProvider is a function that can provide a database connection.
type ConnectionProvider func(util.LogContext) (*sql.DB, error)

//Importer manages the state for an ingest job.
type Importer struct {
	directory      string
	detector       *flood.Detector
	dbConnProvider ConnectionProvider
	statusChan     chan chan string
	context        util.LogContext
}

//NewImporter intializes a new importer over a directory of scene sidecars.
func NewImporter(
	directory string,
	detector *flood.Detector,
	dbConnProvider ConnectionProvider) *Importer {
	return &Importer{
		directory:      directory,
		detector:       detector,
		dbConnProvider: dbConnProvider,
		statusChan:     make(chan chan string, 10),
		context:        &util.BasicLogContext{},
	}
}

//ImportWhile peforms the Import() task on a schedule and on request.
//Note: this is blocking
//The function will exit when messageChan is closed and any in-progress jobs complete.
//To close quickly, send AbortIngestJobMessage on messageChan before closing it.
func (imp *Importer) ImportWhile(messageChan <-chan string, maxTimeBetweenJobs time.Duration) {
	util.LogInfo(imp.context, fmt.Sprintf("Job loop started with frequency %v", maxTimeBetweenJobs))

	previousStatus := "\tNone"

	scheduleTimer := time.NewTimer(maxTimeBetweenJobs)
	nextScheduledStartTime := time.Now().Add(maxTimeBetweenJobs)

	var startJob bool
	for {
		startJob = false

		//Wait for a start message.
		//Status is reported cooperatively, so deal with any requests while we wait.
		select {
		case <-scheduleTimer.C:
			util.LogInfo(imp.context, "Maximum time between jobs elapsed.")
			startJob = true
		case msg, ok := <-messageChan:
			if !ok {
				scheduleTimer.Stop()
				return //The message channel has been closed. Exit.
			}
			if msg == BeginIngestJobMessage {
				util.LogInfo(imp.context, "User requested job start.")
				startJob = true
			}
		case respChan := <-imp.statusChan:
			select {
			case respChan <- fmt.Sprintf("%v\nStatus: Sleeping until %v\nPrevious job:\n%v",
				time.Now().Format(statusTimeLayout),
				nextScheduledStartTime.Format(statusTimeLayout),
				previousStatus):
			default:
				//Could not send immediately. We'll ignore it.
			}
		}

		if startJob {
			util.LogInfo(imp.context, "Starting job.")
			previousStatus = imp.Import(messageChan)

			scheduleTimer.Stop()
		TimerDrainLoop:
			for {
				select {
				case <-scheduleTimer.C: //good, discard
				default:
					break TimerDrainLoop
				}
			}
			scheduleTimer.Reset(maxTimeBetweenJobs)
			nextScheduledStartTime = time.Now().Add(maxTimeBetweenJobs)
		}
	}
}

//GetStatus is a thread safe way to get information about the import operation.
func (imp *Importer) GetStatus() string {
	responseChan := make(chan string, 1) //Must have a buffer. ImportWhile won't wait if it can't send.
	imp.statusChan <- responseChan
	return <-responseChan
}

//jobProgress is shared by a running Import and the goroutine answering
//status requests for it.
type jobProgress struct {
	mutex    sync.Mutex
	started  time.Time
	found    int
	detected int
	stored   int
	failed   int
	ignored  int
}

func (p *jobProgress) update(f func(*jobProgress)) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	f(p)
}

func (p *jobProgress) String() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	report := fmt.Sprintf("\tStarted: %v\n\tScenes found: %d\n\tDetected: %d\n\tStored: %d\n\tFailed: %d",
		p.started.Format(statusTimeLayout), p.found, p.detected, p.stored, p.failed)
	if p.ignored > 0 {
		report += fmt.Sprintf("\n\tIgnored start requests: %d", p.ignored)
	}
	return report
}

//Import detects every scene in the directory and stores the results. It
//returns a status report. An AbortIngestJobMessage on messageChan, or closing
//it, stops the job between scenes. While the job runs, status requests are
//answered with its progress and start requests are rejected.
func (imp *Importer) Import(messageChan <-chan string) (result string) {
	progress := &jobProgress{started: time.Now()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopWatching := make(chan struct{})
	watcherDone := make(chan struct{})
	go imp.watchJob(messageChan, progress, cancel, stopWatching, watcherDone)
	defer func() {
		close(stopWatching)
		<-watcherDone
	}()

	paths, err := flood.FindScenes(imp.directory)
	if err != nil {
		return fmt.Sprintf("\tStarted: %v\n\tFailed listing %s: %v", progress.started.Format(statusTimeLayout), imp.directory, err)
	}
	progress.update(func(p *jobProgress) { p.found = len(paths) })

	//Database connection is opened right before the ingest, and closed
	//immediately after.
	database, err := imp.dbConnProvider(imp.context)
	if err != nil {
		util.LogSimpleErr(imp.context, "Could not open database connection.", err)
		return fmt.Sprintf("\tStarted: %v\n\tFailed opening database: %v", progress.started.Format(statusTimeLayout), err)
	}
	defer database.Close()

	outcomes := imp.detector.DetectAllProgress(ctx, paths, func(done int) {
		progress.update(func(p *jobProgress) { p.detected = done })
	})

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			progress.update(func(p *jobProgress) { p.failed++ })
			continue
		}
		if err = StoreDetection(database, outcome.Detection); err != nil {
			util.LogSimpleErr(imp.context, fmt.Sprintf("Could not store detection of %s", outcome.Path), err)
			progress.update(func(p *jobProgress) { p.failed++ })
			continue
		}
		progress.update(func(p *jobProgress) { p.stored++ })
	}

	return fmt.Sprintf("%v\n\tFinished: %v\n\tAborted: %v",
		progress, time.Now().Format(statusTimeLayout), ctx.Err() != nil)
}

//watchJob serves messageChan and status requests until stopWatching closes.
func (imp *Importer) watchJob(messageChan <-chan string, progress *jobProgress, cancel context.CancelFunc,
	stopWatching <-chan struct{}, watcherDone chan<- struct{}) {
	defer close(watcherDone)
	for {
		select {
		case msg, ok := <-messageChan:
			switch {
			case !ok:
				util.LogAlert(imp.context, "Message channel closed, ingest job aborted.")
				cancel()
				messageChan = nil //A nil channel is never ready; keep answering status.
			case msg == AbortIngestJobMessage:
				util.LogAlert(imp.context, "Ingest job aborted.")
				cancel()
			case msg == BeginIngestJobMessage:
				util.LogInfo(imp.context, "Start request ignored, a job is already running.")
				progress.update(func(p *jobProgress) { p.ignored++ })
			}
		case respChan := <-imp.statusChan:
			select {
			case respChan <- fmt.Sprintf("%v\nStatus: Running since %v\nCurrent job:\n%v",
				time.Now().Format(statusTimeLayout),
				progress.started.Format(statusTimeLayout),
				progress):
			default:
			}
		case <-stopWatching:
			return
		}
	}
}

//StoreDetection upserts one detection and its extent in a single transaction.
func StoreDetection(database *sql.DB, detection *flood.Detection) error {
	rec, err := RecordFromResult(detection.DetectionResult)
	if err != nil {
		return err
	}
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	if err = InsertDetection(tx, rec, detection.Extent); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
