// Command scorecardstub serves a small fixed set of schools over the College
// Scorecard URL shape, for running collegefinder without a real API key.
// Point SCORECARD_URL at http://localhost:<PORT>/v1/schools.
package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stdout })).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded")
	}

	stub, err := newStubServer(schoolsFixture, os.Getenv("STUB_API_KEY"), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load school fixtures")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           stub.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("url", "http://localhost:"+port+"/v1/schools").Int("schools", len(stub.schools)).Msg("Scorecard stub running")
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
