package main

import (
	"fmt"
	"os"
)

func main() {
	defer fmt.Println("closing")
	if len(os.Args) > 3 {
		os.Exit(2) // want "osexitcheck os.Exit cannot be called in main function of main package"
	}
	func() {
		os.Exit(1) // want "osexitcheck os.Exit cannot be called in main function of main package"
	}()
	execute()
}

func execute() {
	os.Exit(0)
}
