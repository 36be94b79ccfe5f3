package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"qrseal/pkg/sealbox"
	"qrseal/pkg/server"
)

func main() {
	var (
		addr    = flag.String("addr", ":8080", "Listen address")
		dbPath  = flag.String("db", "qrseal.db", "Path to the SQLite database")
		logPath = flag.String("log", "qrseal-server.log", "Path to the server log file")
		baseURL = flag.String("base-url", "http://localhost:8080", "External base URL encoded into QR payloads")
	)
	flag.Parse()

	passphrase := os.Getenv("QRSEAL_PASSPHRASE")
	if passphrase == "" {
		log.Fatal("QRSEAL_PASSPHRASE must be set; it protects security metadata at rest")
	}
	box, err := sealbox.New(passphrase)
	if err != nil {
		log.Fatal(err)
	}

	store, err := server.OpenStore(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	logger, err := server.NewLogger(*logPath)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Close()

	srv := server.New(store, box, logger, *baseURL)
	logger.Infof("server listening on %s", *addr)
	log.Println("Server running on " + *addr)
	log.Fatal(http.ListenAndServe(*addr, srv.Router()))
}
