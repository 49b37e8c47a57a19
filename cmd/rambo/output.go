package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ink1ing/rambooster/pkg/launchagent"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/remedy"
)

// userMessage maps the well-known failure modes onto actionable advice.
// Anything unrecognized passes through unchanged.
func userMessage(err error) string {
	var execErr *remedy.ExecutionFailedError
	var statsErr *memstats.StatsError
	switch {
	case errors.Is(err, remedy.ErrCommandNotFound):
		return fmt.Sprintf("purge binary not found at %s. Install the Xcode command line tools: xcode-select --install", remedy.DefaultPurgePath)
	case errors.As(err, &execErr):
		if execErr.NeedsPermission() {
			return "purge needs elevated privileges. Run 'rambo setup' to configure passwordless purge, or rerun with --request-permission"
		}
		return fmt.Sprintf("purge exited with status %d", execErr.ExitCode)
	case errors.As(err, &statsErr):
		return fmt.Sprintf("could not read memory counters: %v", statsErr.Err)
	case errors.Is(err, launchagent.ErrNotInstalled):
		return "daemon agent is not installed. Run 'rambo daemon install' first"
	case errors.Is(err, launchagent.ErrUnsupported):
		return "launchd agents are only available on macOS"
	}
	return err.Error()
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", userMessage(err))
	os.Exit(1)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
}

func printSnapshot(snap memstats.MemSnapshot) {
	fmt.Println("--- Memory ---")
	fmt.Printf("  Total:      %d MB\n", snap.TotalMb)
	fmt.Printf("  Free:       %d MB\n", snap.FreeMb)
	fmt.Printf("  Active:     %d MB\n", snap.ActiveMb)
	fmt.Printf("  Inactive:   %d MB\n", snap.InactiveMb)
	fmt.Printf("  Wired:      %d MB\n", snap.WiredMb)
	fmt.Printf("  Compressed: %d MB\n", snap.CompressedMb)
	fmt.Printf("  Pressure:   %s\n", snap.Pressure)
}

func printProcessTable(records []procs.ProcessRecord) {
	fmt.Printf("%-6s %-25s %10s\n", "PID", "Name", "RSS (MB)")
	fmt.Printf("%-6s %-25s %10s\n", strings.Repeat("-", 6), strings.Repeat("-", 25), strings.Repeat("-", 10))
	for _, rec := range records {
		fmt.Printf("%-6d %-25s %10d\n", rec.Pid, truncateName(rec.Name), rec.RssMb)
	}
}

// truncateName keeps process names inside the table column.
func truncateName(name string) string {
	if len(name) > 23 {
		return name[:23] + "..."
	}
	return name
}

// confirm prompts on stdout and reads one line from in. Anything but y or
// yes counts as no.
func confirm(in io.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
