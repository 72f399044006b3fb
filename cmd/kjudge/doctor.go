package main

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/natsukagami/kjudge-core/sandbox"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Probe the environment for isolate and a C++ compiler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doctor(cmd.Context())
		},
	}
}

func doctor(ctx context.Context) error {
	if sandbox.ProbeIsolate(ctx) {
		fmt.Println("isolate: available (sandboxed backend will be used)")
	} else {
		fmt.Println("isolate: NOT available (falling back to the unsandboxed backend)")
	}

	if path, err := exec.LookPath("g++"); err == nil {
		fmt.Printf("g++: available (%s)\n", path)
	} else {
		fmt.Println("g++: NOT available (compilation will fail for every submission)")
	}

	return nil
}
