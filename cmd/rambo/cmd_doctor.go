package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ink1ing/rambooster/pkg/launchagent"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/jaypipes/ghw"
	"github.com/spf13/cobra"
)

const (
	checkPass = "[✓]"
	checkFail = "[✗]"
	checkWarn = "[!]"
)

func runDoctor(cmd *cobra.Command, args []string) {
	a := newAgent()
	defer a.Close()
	ctx := context.Background()

	fmt.Println("--- rambo doctor ---")

	if _, err := os.Stat(remedy.DefaultPurgePath); err == nil {
		fmt.Printf("%s purge command found at %s\n", checkPass, remedy.DefaultPurgePath)
	} else {
		fmt.Printf("%s purge command not found at %s\n", checkFail, remedy.DefaultPurgePath)
		fmt.Println("    -> Memory boosting will not work.")
		fmt.Println("    -> To fix, install the Xcode command line tools: xcode-select --install")
	}

	if sudoConfigured(ctx) {
		fmt.Printf("%s passwordless sudo is configured for purge\n", checkPass)
	} else {
		fmt.Printf("%s purge runs without elevated privileges (less effective)\n", checkWarn)
		fmt.Println("    -> Run 'rambo setup' to configure passwordless purge")
	}

	if snap, err := a.Provider.Read(ctx); err == nil {
		fmt.Printf("%s memory counters readable (%d MB total, pressure %s)\n", checkPass, snap.TotalMb, snap.Pressure)
	} else {
		fmt.Printf("%s %s\n", checkFail, userMessage(err))
	}

	if mem, err := ghw.Memory(); err == nil {
		fmt.Printf("%s hardware reports %d MB physical memory\n", checkPass, mem.TotalPhysicalBytes/(1024*1024))
	} else {
		fmt.Printf("%s hardware memory info unavailable: %v\n", checkWarn, err)
	}

	if records := a.Inventory.List(ctx); len(records) > 0 {
		fmt.Printf("%s process inventory lists %d processes\n", checkPass, len(records))
	} else {
		fmt.Printf("%s process inventory came back empty\n", checkWarn)
	}

	if dir, err := a.Config.ExpandedLogDir(); err != nil {
		fmt.Printf("%s cannot resolve log directory: %v\n", checkFail, err)
	} else if err := probeWritable(dir); err != nil {
		fmt.Printf("%s log directory %s is not writable: %v\n", checkFail, dir, err)
	} else {
		fmt.Printf("%s log directory %s is writable (%s backend)\n", checkPass, dir, a.Log.Name())
	}

	if mgr, err := launchagent.NewManager(a.Logger); err != nil {
		fmt.Printf("%s %s\n", checkWarn, userMessage(err))
	} else if status, err := mgr.CurrentStatus(ctx); err != nil {
		fmt.Printf("%s could not query launchd: %v\n", checkWarn, err)
	} else if !status.Installed {
		fmt.Printf("%s daemon agent not installed\n", checkWarn)
		fmt.Println("    -> Run 'rambo daemon install' to monitor pressure in the background")
	} else if status.Loaded && status.Pid > 0 {
		fmt.Printf("%s daemon agent running (PID %d)\n", checkPass, status.Pid)
	} else {
		fmt.Printf("%s daemon agent installed but not running\n", checkWarn)
	}

	fmt.Println("\n--- Current Configuration ---")
	fmt.Printf("RSS Threshold:       %d MB\n", a.Config.RssThresholdMb)
	fmt.Printf("Throttle Interval:   %d seconds\n", a.Config.ThrottleSeconds)
	fmt.Printf("Process Termination: %s\n", enabledWord(a.Config.EnableTermination))
	fmt.Printf("Allow Risky:         %s\n", enabledWord(a.Config.AllowRisky))
	fmt.Printf("Pressure Strategy:   %s\n", a.Config.PressureStrategy)
	fmt.Printf("Log Backend:         %s\n", a.Config.LogBackend)
	fmt.Printf("Log Retention:       %d days\n", a.Config.LogRetentionDays)
	fmt.Printf("Targets:             %v\n", a.Config.Targets)
	fmt.Printf("Protected:           %v\n", a.Config.Protected)
}

func enabledWord(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

// probeWritable writes and removes a marker file in dir.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(probe)
}
