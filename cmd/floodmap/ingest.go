package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/raviraj-dave96/Compoundflood-road-damage/db"
	"github.com/raviraj-dave96/Compoundflood-road-damage/flood"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

const defaultIngestFrequency = 24 * time.Hour

//ingestAction runs the importer once with --once, otherwise starts the
//worker loop and an http server to control it
func ingestAction(c *cli.Context) error {
	ctx := &util.BasicLogContext{}
	cfg, err := flood.ConfigFromEnv()
	if err != nil {
		return cli.NewExitError(util.LogSimpleErr(ctx, "Invalid flood configuration.", err).Error(), 1)
	}
	detector, err := flood.NewDetector(cfg)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	importer := db.NewImporter(util.GetIngestDirectory(), detector, getDbConnectionFunc)

	if c.Bool("once") {
		fmt.Fprintln(c.App.Writer, importer.Import(nil))
		return nil
	}

	//Create the channel that sends the start/stop messages to the Importer.
	messageChan := make(chan string, 5) //small buffer.

	//Start the sleep/ingest loop.
	go importer.ImportWhile(messageChan, getTimerDuration())

	portStr := util.GetPortStr()
	util.LogInfo(ctx, fmt.Sprintf("Ingest control listening on port %s", portStr))
	launchServerFunc(portStr, createIngestRouter(importer, messageChan))
	return nil
}

func createIngestRouter(importer *db.Importer, messageChan chan<- string) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/ingest/", func(resp http.ResponseWriter, req *http.Request) {
		handleImportStatus(importer, resp, req)
	})
	router.HandleFunc("/ingest/start", func(resp http.ResponseWriter, req *http.Request) {
		handleForceStartIngest(importer, messageChan, resp, req)
	})
	router.HandleFunc("/ingest/cancel", func(resp http.ResponseWriter, req *http.Request) {
		handleCancel(importer, messageChan, resp, req)
	})
	return router
}

//handleImportStatus requests the status from the importer and writes it out.
func handleImportStatus(imp *db.Importer, writer http.ResponseWriter, req *http.Request) {
	fmt.Fprintln(writer, imp.GetStatus())
}

//handleForceStartIngest sends a "begin" message to the importer and returns the new status to the user.
func handleForceStartIngest(imp *db.Importer, messageChan chan<- string, writer http.ResponseWriter, req *http.Request) {
	select {
	case messageChan <- db.BeginIngestJobMessage:
		fmt.Fprintln(writer, "Begin job request submitted.")
	default:
		fmt.Fprintln(writer, "Error submitting request.")
	}
	fmt.Fprintln(writer, imp.GetStatus())
}

//handleCancel sends an "abort" message to the importer and returns the new status to the user.
func handleCancel(imp *db.Importer, cancelChan chan<- string, writer http.ResponseWriter, req *http.Request) {
	select {
	case cancelChan <- db.AbortIngestJobMessage:
		fmt.Fprintln(writer, "Cancel request submitted.")
	default:
		fmt.Fprintln(writer, "Error submitting cancel request.")
	}
	fmt.Fprintln(writer, imp.GetStatus())
}

func getTimerDuration() time.Duration {
	return util.GetEnvDuration(util.INGEST_FREQUENCY, defaultIngestFrequency, time.Minute)
}
