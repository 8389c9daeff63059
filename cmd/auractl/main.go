package main

import (
	"fmt"
	"log"
	"os"
)

func main() {
	logger := log.New(os.Stderr, "[auractl] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	a := newApp(os.Stdout, os.Stdin, logger)
	if err := a.execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
