package main

import (
	"encoding-service/app"
	"encoding-service/pkg/observability"
)

func main() {
	observability.StartProfiling("encoding-service")
	app.Run()
}
