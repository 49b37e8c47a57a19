// Package escalate runs the aggressive boost: a fixed script of purge and
// terminate stages for when a plain purge no longer buys enough memory back.
package escalate

import (
	"context"
	"time"

	"github.com/ink1ing/rambooster/pkg/candidates"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/ink1ing/rambooster/pkg/safety"
	log "github.com/sirupsen/logrus"
)

const defaultKillPause = 500 * time.Millisecond

// Stage is one step of an escalation script.
type Stage interface {
	stageName() string
}

// PurgeStage runs a full boost and contributes its delta to the outcome.
type PurgeStage struct{}

func (PurgeStage) stageName() string { return "purge" }

// TerminateStage kills up to MaxTargets of the largest expendable processes
// above ThresholdMb.
type TerminateStage struct {
	MaxTargets  int
	ThresholdMb uint64
	Force       bool
}

func (TerminateStage) stageName() string { return "terminate" }

// DefaultScript is the standard aggressive boost: purge, kill the top three
// consumers above 200 MB, purge again to reclaim what they held.
func DefaultScript() []Stage {
	return []Stage{
		PurgeStage{},
		TerminateStage{MaxTargets: 3, ThresholdMb: 200, Force: true},
		PurgeStage{},
	}
}

// StageResult reports what a single stage achieved.
type StageResult struct {
	Stage      string `json:"stage"`
	DeltaMb    int64  `json:"delta_mb"`
	Terminated int    `json:"terminated"`
	Attempted  int    `json:"attempted"`
}

// Outcome aggregates a whole script run. TotalDeltaMb sums purge stages only;
// memory freed by kills shows up in the purge that follows them. Terminated
// counts processes confirmed gone, not attempts.
type Outcome struct {
	TotalDeltaMb int64         `json:"total_delta_mb"`
	Terminated   int           `json:"terminated"`
	Attempted    int           `json:"attempted"`
	StageResults []StageResult `json:"stages"`
}

// Booster runs one purge cycle with before and after readings.
type Booster interface {
	Boost(ctx context.Context) (remedy.RemediationResult, error)
}

// ProcessLister enumerates running processes.
type ProcessLister interface {
	List(ctx context.Context) ([]procs.ProcessRecord, error)
}

// Terminator attempts to stop one process and reports whether it is
// confirmed gone.
type Terminator interface {
	Terminate(ctx context.Context, pid int32, force bool) bool
}

// Config carries the safety boundaries a script run must respect.
type Config struct {
	AllowRisky bool
	Targets    []string
	Protected  []string
}

// Procedure interprets escalation scripts.
type Procedure struct {
	booster Booster
	lister  ProcessLister
	term    Terminator
	logger  *log.Logger
	config  Config

	killPause time.Duration
}

// New creates a script interpreter.
func New(booster Booster, lister ProcessLister, term Terminator, logger *log.Logger, config Config) *Procedure {
	return &Procedure{
		booster:   booster,
		lister:    lister,
		term:      term,
		logger:    logger,
		config:    config,
		killPause: defaultKillPause,
	}
}

// Run executes the script in order. A failing purge stage aborts the run and
// returns the partial outcome alongside the error.
func (p *Procedure) Run(ctx context.Context, script []Stage) (Outcome, error) {
	var out Outcome
	for _, stage := range script {
		switch s := stage.(type) {
		case PurgeStage:
			result, err := p.booster.Boost(ctx)
			if err != nil {
				return out, err
			}
			p.logger.Infof("Purge stage freed %d MB", result.DeltaMb)
			out.TotalDeltaMb += result.DeltaMb
			out.StageResults = append(out.StageResults, StageResult{Stage: s.stageName(), DeltaMb: result.DeltaMb})

		case TerminateStage:
			result, err := p.terminate(ctx, s)
			if err != nil {
				return out, err
			}
			out.Terminated += result.Terminated
			out.Attempted += result.Attempted
			out.StageResults = append(out.StageResults, result)
		}
	}
	return out, nil
}

func (p *Procedure) terminate(ctx context.Context, stage TerminateStage) (StageResult, error) {
	result := StageResult{Stage: stage.stageName()}

	records, err := p.lister.List(ctx)
	if err != nil {
		return result, err
	}

	selected := candidates.Select(records, stage.ThresholdMb, p.config.Targets, p.config.Protected)
	safe := safety.FilterSafe(selected, p.config.AllowRisky)
	targets := procs.TopByRSS(safe, stage.MaxTargets)
	if len(targets) == 0 {
		p.logger.Infof("Terminate stage found no expendable processes above %d MB", stage.ThresholdMb)
		return result, nil
	}

	for i, target := range targets {
		if i > 0 && !p.pause(ctx) {
			return result, ctx.Err()
		}
		result.Attempted++
		if !p.term.Terminate(ctx, target.Pid, stage.Force) {
			p.logger.Warnf("Process %s (pid %d) survived terminate stage", target.Name, target.Pid)
			continue
		}
		result.Terminated++
		p.logger.Infof("Terminated %s (pid %d, %d MB)", target.Name, target.Pid, target.RssMb)
	}
	return result, nil
}

// pause waits between kills so the system can settle before the next signal.
func (p *Procedure) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(p.killPause):
		return true
	}
}
