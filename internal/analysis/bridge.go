// Package analysis manages the external offline analysis process that turns
// the serialized catalog into artist and genre recommendations. At most one
// invocation is live per bridge; a new request terminates the old one and its
// in-flight output is discarded, never merged.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cesargomez89/lavender/internal/constants"
	"github.com/cesargomez89/lavender/internal/logger"
)

// ErrSuperseded is returned when a newer analysis request terminated this one.
var ErrSuperseded = errors.New("analysis superseded by a newer request")

// Recommendations is the structured result of one analysis run. Both lists
// may be empty; an absent or unparsable output block resolves to an empty
// value, not an error.
type Recommendations struct {
	Artists []ArtistRec `json:"artist_recommendations"`
	Songs   []SongRec   `json:"genre_recommendations"`
}

type ArtistRec struct {
	Artist string `json:"artist"`
	Genre  string `json:"genre"`
}

type SongRec struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Genre  string `json:"genre"`
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Bridge starts and supervises analysis invocations.
type Bridge struct {
	command string
	script  string
	log     *logger.Logger

	mu      chan struct{} // 1-slot registration lock
	current *run
}

func NewBridge(command, script string, log *logger.Logger) *Bridge {
	b := &Bridge{
		command: command,
		script:  script,
		log:     log.WithComponent("analysis"),
		mu:      make(chan struct{}, 1),
	}
	b.mu <- struct{}{}
	return b
}

// Analyze runs the external process with the seed ids as positional
// arguments and the catalog lines on stdin, then parses the delimited
// recommendation block from its stdout. A request arriving while another run
// is live terminates the earlier run after a bounded wait.
func (b *Bridge) Analyze(ctx context.Context, songID, albumID int64, catalogLines []string) (*Recommendations, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	me := &run{cancel: cancel, done: make(chan struct{})}
	defer close(me.done)

	<-b.mu
	prev := b.current
	b.current = me
	b.mu <- struct{}{}

	if prev != nil {
		prev.cancel()
		select {
		case <-prev.done:
		case <-time.After(constants.AnalysisKillWait):
			b.log.Warn("previous analysis did not exit within grace period")
		}
	}

	cmd := exec.CommandContext(runCtx, b.command, b.script,
		strconv.FormatInt(songID, 10), strconv.FormatInt(albumID, 10))
	cmd.Stdin = strings.NewReader(strings.Join(catalogLines, "\n"))

	// Analyzers fork helpers that inherit the stdout pipe. Kill the whole
	// process group on cancel, and stop draining pipes after the grace
	// period, so a superseded caller is never held hostage by an orphan.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = constants.AnalysisKillWait

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	<-b.mu
	superseded := b.current != me
	if !superseded {
		b.current = nil
	}
	b.mu <- struct{}{}

	if superseded {
		return nil, ErrSuperseded
	}
	if stderr.Len() > 0 {
		b.log.Debug("analysis stderr", "output", strings.TrimSpace(stderr.String()))
	}
	if err != nil {
		if runCtx.Err() != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", runCtx.Err())
		}
		return nil, fmt.Errorf("analysis process failed: %w", err)
	}

	return ParseOutput(stdout.String()), nil
}

// ParseOutput extracts the RECOMMENDATIONS_BEGIN/END block from free-form
// process output. A missing block, unparsable JSON, or an empty block all
// yield an empty result; none of those are failures.
func ParseOutput(output string) *Recommendations {
	var block strings.Builder
	reading := false
	for _, line := range strings.Split(output, "\n") {
		switch strings.TrimSpace(line) {
		case constants.AnalysisBeginToken:
			reading = true
			continue
		case constants.AnalysisEndToken:
			reading = false
			continue
		}
		if reading {
			block.WriteString(line)
			block.WriteString("\n")
		}
	}

	recs := &Recommendations{}
	if block.Len() == 0 {
		return recs
	}
	if err := json.Unmarshal([]byte(block.String()), recs); err != nil {
		return &Recommendations{}
	}
	return recs
}
