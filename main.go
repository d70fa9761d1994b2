package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/joho/godotenv"
)

func init() {
	// loads values from .env into the system
	if err := godotenv.Load(); err != nil {
		log.Print("No .env file found")
	}
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	level, err := log.ParseLevel(config.LogLevel)
	if err != nil {
		log.Fatalf("LOG_LEVEL: %v", err)
	}
	log.SetLevel(level)

	app, err := newApp(config)
	if err != nil {
		log.Fatal(err)
	}
	app.Start()
}
