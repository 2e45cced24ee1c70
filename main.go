package main

import (
	"fmt"
	"runtime"

	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		fmt.Println("No .env file found, reading config from environment")
	}

	runtime.GOMAXPROCS(runtime.NumCPU())
	s, err := NewServer()
	if err != nil {
		panic(err)
	}

	s.Run()
	for range s.workers {
		<-s.finish
	}
	fmt.Println("Server stopped gracefully!")
}
