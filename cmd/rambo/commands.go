package main

import (
	"fmt"
	"os"

	"github.com/ink1ing/rambooster/pkg/agent"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	debugLogging bool

	statusJSON bool
	statusTop  int

	boostJSON              bool
	boostAggressive        bool
	boostForce             bool
	boostRequestPermission bool

	suggestJSON      bool
	suggestTop       int
	suggestThreshold uint64

	killForce bool
	killYes   bool

	logSince  string
	logAction string
	logLimit  int
	clearYes  bool

	updateCheck bool

	rootCmd = &cobra.Command{
		Use:   "rambo",
		Short: "Memory pressure remediation for macOS",
		Long: `rambo watches memory pressure, frees inactive memory with the system
purge command, and can terminate runaway processes under safety guardrails.`,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show memory counters and the top processes by RSS",
		Run:   runStatus, // Defined in cmd_status.go
	}

	boostCmd = &cobra.Command{
		Use:   "boost",
		Short: "Free inactive memory now",
		Run:   runBoost, // Defined in cmd_boost.go
	}

	suggestCmd = &cobra.Command{
		Use:   "suggest",
		Short: "List termination candidates with their safety tier",
		Run:   runSuggest, // Defined in cmd_suggest.go
	}

	killCmd = &cobra.Command{
		Use:   "kill [pid]",
		Short: "Terminate one process after a safety check",
		Args:  cobra.ExactArgs(1),
		Run:   runKill, // Defined in cmd_kill.go
	}

	// --- Event log ---
	logCmd = &cobra.Command{
		Use:   "log",
		Short: "Inspect and maintain the remediation event log",
	}
	logShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print recent event log entries",
		Run:   runLogShow, // Defined in cmd_log.go
	}
	logPruneCmd = &cobra.Command{
		Use:   "prune",
		Short: "Delete entries older than the retention window",
		Run:   runLogPrune, // Defined in cmd_log.go
	}
	logClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all event log entries",
		Run:   runLogClear, // Defined in cmd_log.go
	}
	logPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the event log directory",
		Run:   runLogPath, // Defined in cmd_log.go
	}
	logSizeCmd = &cobra.Command{
		Use:   "size",
		Short: "Print event log storage usage",
		Run:   runLogSize, // Defined in cmd_log.go
	}

	// --- Daemon ---
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		Short: "Run or manage the background monitoring daemon",
	}
	daemonRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the monitoring daemon in the foreground",
		Run:   runDaemonRun, // Defined in cmd_daemon.go
	}
	daemonInstallCmd = &cobra.Command{
		Use:   "install",
		Short: "Install the daemon as a launchd user agent",
		Run:   runDaemonInstall, // Defined in cmd_daemon.go
	}
	daemonUninstallCmd = &cobra.Command{
		Use:   "uninstall",
		Short: "Unload and remove the launchd user agent",
		Run:   runDaemonUninstall, // Defined in cmd_daemon.go
	}
	daemonStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show whether the launchd agent is installed and running",
		Run:   runDaemonStatus, // Defined in cmd_daemon.go
	}

	// --- Environment ---
	doctorCmd = &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment and configuration",
		Run:   runDoctor, // Defined in cmd_doctor.go
	}
	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Configure passwordless purge via sudoers",
		Run:   runSetup, // Defined in cmd_setup.go
	}

	hotkeyCmd = &cobra.Command{
		Use:   "hotkey",
		Short: "Global hotkey integration",
	}
	hotkeyRunCmd = &cobra.Command{
		Use:   "run",
		Short: "Listen for the boost hotkey in the foreground",
		Run:   runHotkey, // Defined in cmd_hotkey.go
	}

	updateCmd = &cobra.Command{
		Use:   "update",
		Short: "Check for a newer release",
		Run:   runUpdate, // Defined in cmd_update.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion, // Defined in cmd_update.go
	}

	tuiCmd = &cobra.Command{
		Use:   "tui",
		Short: "Interactive boost session",
		Run:   runTui, // Defined in cmd_tui.go
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Emit JSON instead of the table")
	statusCmd.Flags().IntVarP(&statusTop, "top", "n", 10, "How many processes to show")

	rootCmd.AddCommand(boostCmd)
	boostCmd.Flags().BoolVar(&boostJSON, "json", false, "Emit the result as JSON")
	boostCmd.Flags().BoolVar(&boostAggressive, "aggressive", false, "Run the purge, terminate, purge escalation script")
	boostCmd.Flags().BoolVar(&boostForce, "force", false, "Ignore the boost throttle")
	boostCmd.Flags().BoolVar(&boostRequestPermission, "request-permission", false, "Allow an interactive sudo prompt if purge needs it")

	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Emit JSON instead of the table")
	suggestCmd.Flags().IntVarP(&suggestTop, "top", "n", 10, "How many candidates to show")
	suggestCmd.Flags().Uint64Var(&suggestThreshold, "threshold", 0, "RSS threshold in MB (overrides the configured value)")

	rootCmd.AddCommand(killCmd)
	killCmd.Flags().BoolVar(&killForce, "force", false, "Force-kill if the process survives the grace period")
	killCmd.Flags().BoolVar(&killYes, "yes", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logShowCmd)
	logShowCmd.Flags().StringVar(&logSince, "since", "24h", "How far back to look (Go duration)")
	logShowCmd.Flags().StringVar(&logAction, "action", "", "Only show entries for one action")
	logShowCmd.Flags().IntVarP(&logLimit, "limit", "n", 50, "Maximum entries to print")
	logCmd.AddCommand(logPruneCmd)
	logCmd.AddCommand(logClearCmd)
	logClearCmd.Flags().BoolVar(&clearYes, "yes", false, "Skip the confirmation prompt")
	logCmd.AddCommand(logPathCmd)
	logCmd.AddCommand(logSizeCmd)

	rootCmd.AddCommand(daemonCmd)
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonInstallCmd)
	daemonCmd.AddCommand(daemonUninstallCmd)
	daemonCmd.AddCommand(daemonStatusCmd)

	rootCmd.AddCommand(doctorCmd)

	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().Bool("install", false, "Write the sudoers rule instead of printing it")

	rootCmd.AddCommand(hotkeyCmd)
	hotkeyCmd.AddCommand(hotkeyRunCmd)

	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only report whether an update exists")

	rootCmd.AddCommand(versionCmd)

	rootCmd.AddCommand(tuiCmd)
}

// newAgent builds the shared assembly every command drives and applies the
// global flag overrides.
func newAgent() *agent.Agent {
	a, err := agent.CreateAgent()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if debugLogging {
		a.Logger.SetLevel(log.DebugLevel)
	}
	return a
}
