// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raviraj-dave96/Compoundflood-road-damage/detection"
	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
	cli "gopkg.in/urfave/cli.v1"
)

func createRouter(ctx util.LogContext) (*mux.Router, error) {
	router := mux.NewRouter()
	router.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte("OK"))
	})
	router.Handle("/otsu", detection.NewOtsuHandler()).Methods(http.MethodPost)
	router.Handle("/metrics", promhttp.Handler())

	if discoverHandler, err := detection.NewDiscoverHandler(getDbConnectionFunc); err == nil {
		router.Handle("/detections", discoverHandler).Methods(http.MethodGet)
	} else {
		return nil, err
	}

	if metadataHandler, err := detection.NewMetadataHandler(getDbConnectionFunc); err == nil {
		router.Handle("/detections/{id}", metadataHandler).Methods(http.MethodGet)
	} else {
		return nil, err
	}

	if extentHandler, err := detection.NewExtentHandler(getDbConnectionFunc); err == nil {
		router.Handle("/detections/{id}/extent", extentHandler).Methods(http.MethodGet)
	} else {
		return nil, err
	}

	util.LogInfo(ctx, "Router created")
	return router, nil
}

func serveAction(*cli.Context) {
	logContext := &(util.BasicLogContext{})

	portStr := util.GetPortStr()

	if router, err := createRouter(logContext); err == nil {
		util.LogInfo(logContext, fmt.Sprintf("Listening on port %s", portStr))
		launchServerFunc(portStr, router)
	} else {
		util.LogSimpleErr(logContext, "Failed to create router: ", err)
	}
}

var launchServerFunc = launchServer

func launchServer(portStr string, router *mux.Router) {
	server := http.Server{
		Addr:    portStr,
		Handler: router,
	}

	log.Fatal(server.ListenAndServe())
}
