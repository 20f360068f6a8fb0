package main

import (
	"log"

	approuters "github.com/mamoonayoob/Quick-Mart-Server/internal/app_routers"
	"github.com/mamoonayoob/Quick-Mart-Server/internal/configuration"
)

func main() {
	container, err := configuration.BuildContainer()
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	// Ensure cleanup on shutdown
	defer container.Close()

	// Setup routers
	approuters.StartServer(container)
}
