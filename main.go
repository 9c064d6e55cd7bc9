// Command lc3 interprets LC-3 machine-code images.
//
// Each argument is the path to a program image; images are loaded in
// argument order into one shared address space and execution starts at
// 0x3000. The terminal is switched to raw mode for the run and restored on
// every exit path.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/aryanA101a/lc3/vm"
)

func main() {
	log.SetPrefix("lc3: ")
	log.SetFlags(0)

	traceFlag := flag.Bool("trace", false, "log each instruction as it executes")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-trace] <image-file1> [image-file2 ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(vm.ExitUsage)
	}

	machine := vm.New()
	machine.Trace = *traceFlag

	for _, path := range flag.Args() {
		if err := machine.LoadImage(path); err != nil {
			log.Printf("failed to load image: %s", path)
			os.Exit(vm.ExitFailure)
		}
	}

	if err := machine.OpenConsole(); err != nil {
		log.Printf("%v", err)
		os.Exit(vm.ExitFailure)
	}

	// Raw mode leaves ISIG alone, so an interrupt can still arrive while
	// the machine is blocked on input. Restore the terminal before dying.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		machine.CloseConsole()
		os.Exit(vm.ExitFailure)
	}()

	err := machine.Run()
	machine.CloseConsole()

	if err != nil {
		log.Printf("%v", err)
		os.Exit(vm.ExitCode(err))
	}
	fmt.Println("Shutting Down VM...")
}
