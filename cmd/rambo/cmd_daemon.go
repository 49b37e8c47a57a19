package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ink1ing/rambooster/pkg/launchagent"
	"github.com/spf13/cobra"
)

func runDaemonRun(cmd *cobra.Command, args []string) {
	// RunDaemon owns the event log lifecycle, so no deferred Close here.
	a := newAgent()
	if err := a.RunDaemon(context.Background()); err != nil {
		fatal(err)
	}
}

func runDaemonInstall(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	mgr, err := launchagent.NewManager(a.Logger)
	if err != nil {
		fatal(err)
	}
	exe, err := os.Executable()
	if err != nil {
		fatal(err)
	}
	def, err := launchagent.NewDefinition(exe, a.Config.ThrottleSeconds)
	if err != nil {
		fatal(err)
	}
	if err := mgr.Install(ctx, def); err != nil {
		fatal(err)
	}
	fmt.Println("LaunchAgent installed and loaded.")
	fmt.Printf("The daemon now starts at login. Plist: %s\n", mgr.PlistPath())
}

func runDaemonUninstall(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	mgr, err := launchagent.NewManager(a.Logger)
	if err != nil {
		fatal(err)
	}
	if err := mgr.Uninstall(context.Background()); err != nil {
		fatal(err)
	}
	fmt.Println("LaunchAgent uninstalled.")
}

func runDaemonStatus(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()

	mgr, err := launchagent.NewManager(a.Logger)
	if err != nil {
		fatal(err)
	}
	status, err := mgr.CurrentStatus(context.Background())
	if err != nil {
		fatal(err)
	}
	if !status.Installed {
		fmt.Println("[!] LaunchAgent is not installed. Run 'rambo daemon install'.")
		return
	}
	fmt.Printf("[✓] Installed: %s\n", mgr.PlistPath())
	switch {
	case status.Loaded && status.Pid > 0:
		fmt.Printf("[✓] Running under launchd (PID %d)\n", status.Pid)
	case status.Loaded:
		fmt.Println("[✓] Loaded, waiting for launchd to start it")
	default:
		fmt.Println("[!] Installed but not loaded. Run 'rambo daemon install' to reload it.")
	}
}
