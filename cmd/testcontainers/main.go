package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bluffpark/holidaylights/internal/testutil"
	"github.com/joho/godotenv"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the holidaylights testcontainers (MariaDB, and Authorizer when AUTHZ_IMAGE is set)
with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	started := make(chan *testutil.TestContainers, 1)
	go func() {
		tc, err := testutil.CreateTestContainers(context.Background(), nil)
		if err != nil {
			log.Fatalf("Failed to create test containers: %v\n", err)
		}
		log.Printf("Test containers running, DB_TYPE=%s DB_DATABASE=%s DB_USER=%s\n",
			tc.Config.DBType, tc.Config.DBDatabase, tc.Config.DBUser)
		started <- tc
	}()

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating test containers...\n", sig)
	select {
	case tc := <-started:
		tc.Terminate(nil)
	default:
	}
}
