// Command mvr runs, validates, tests and inspects multi-window render
// configurations.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/roach88/mvr/internal/cli"
	"github.com/roach88/mvr/internal/window/glfwwin"
)

func init() {
	// GLFW windows must be created and polled on the main thread, and the
	// engine's control loop runs on the main goroutine.
	runtime.LockOSThread()

	cli.RegisterBackend("glfw", func() (*cli.Backend, error) {
		if err := glfwwin.Init(); err != nil {
			return nil, err
		}
		return &cli.Backend{
			Factory: glfwwin.NewFactory(),
			Policy:  glfwwin.Policy(),
			Close:   glfwwin.Terminate,
		}, nil
	})
}

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
