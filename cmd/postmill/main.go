package main

import (
	"postmill/cmd/handlers"
	"postmill/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
