package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"

	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/spf13/cobra"
)

const sudoersPath = "/etc/sudoers.d/rambo"

func runSetup(cmd *cobra.Command, args []string) {
	u, err := user.Current()
	if err != nil {
		fatal(err)
	}
	rule := fmt.Sprintf("%s ALL=(root) NOPASSWD: %s", u.Username, remedy.DefaultPurgePath)

	ctx := context.Background()
	if sudoConfigured(ctx) {
		fmt.Println("Passwordless purge is already configured.")
		return
	}

	install, _ := cmd.Flags().GetBool("install")
	if !install {
		fmt.Println("To let rambo run purge without a password prompt, add this sudoers rule:")
		fmt.Printf("\n  echo \"%s\" | sudo tee %s\n\n", rule, sudoersPath)
		fmt.Println("Or rerun with --install to write it now (sudo will ask for your password once).")
		return
	}

	fmt.Printf("Writing %s (sudo will prompt for your password)...\n", sudoersPath)
	tee := exec.CommandContext(ctx, "sudo", "tee", sudoersPath)
	tee.Stdin = strings.NewReader(rule + "\n")
	if out, err := tee.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write sudoers rule: %v\n%s", err, out)
		os.Exit(1)
	}

	if sudoConfigured(ctx) {
		fmt.Println("Passwordless purge configured. 'rambo boost' now runs at full strength.")
	} else {
		fmt.Println("Rule written but verification failed; check the sudoers file manually.")
	}
}

// sudoConfigured reports whether sudo will run purge without a password.
func sudoConfigured(ctx context.Context) bool {
	return exec.CommandContext(ctx, "sudo", "-n", "-l", remedy.DefaultPurgePath).Run() == nil
}
