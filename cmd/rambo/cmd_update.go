package main

import (
	"context"
	"fmt"

	"github.com/ink1ing/rambooster/pkg/update"
	"github.com/ink1ing/rambooster/pkg/version"
	"github.com/spf13/cobra"
)

func runUpdate(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	checker := update.NewChecker(a.Logger)
	release, newer, err := checker.CheckForUpdate(context.Background(), version.GetVersionOnly())
	if err != nil {
		fatal(err)
	}

	fmt.Printf("Current version: %s\n", version.GetVersionOnly())
	fmt.Printf("Latest release:  %s\n", release.Version())
	if !newer {
		fmt.Println("You are up to date.")
		return
	}
	fmt.Println("A newer release is available.")
	if updateCheck {
		return
	}
	fmt.Println("\nTo update:")
	fmt.Printf("  go install github.com/ink1ing/rambooster/cmd/rambo@%s\n", release.TagName)
	fmt.Printf("  or download it from %s\n", release.HTMLURL)
}

func runVersion(cmd *cobra.Command, args []string) {
	fmt.Println(version.GetVersion())
}
