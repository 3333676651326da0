package main

import (
	"flag"
	"log"
)

var (
	GitCommit string
	GitTag    string
	BuildTime string
)

// @title Book Catalog API
// @version 1.0
// @description Create, read, update and delete books of the catalog.
// @BasePath /
func main() {
	configFile := flag.String("config", DefaultConfigFile, "path of the yaml configuration file")
	envFile := flag.String("env", DefaultEnvFile, "path of the optional environment file")
	flag.Parse()

	app, err := NewApp(*configFile, *envFile)
	if err != nil {
		log.Fatal("application failed to initialized: ", err)
	}
	err = app.Run()
	if err != nil {
		log.Fatal("application exited. check logs for more details.", err)
	}
}
