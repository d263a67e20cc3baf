package main

import (
	"log"

	"github.com/sprintdeck/sprintdeck/internal/auth/app"
)

func main() {
	application, err := app.New(app.LoadConfig())
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
