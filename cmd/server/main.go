// server runs the calpane API without the CLI wrapper. Handy for local
// development: it reads the same CALPANE_* environment as `calpane serve`.
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/calpane/calpane/internal/app"
	"github.com/calpane/calpane/internal/config"
	"github.com/calpane/calpane/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logging.Init(cfg.LogLevel, cfg.LogFormat)

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer application.Close()

	log.Printf("Starting local server on %s", cfg.ListenAddr)
	log.Fatal(http.ListenAndServe(cfg.ListenAddr, application.Routes()))
}
