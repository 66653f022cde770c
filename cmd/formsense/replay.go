package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/banshee-data/formsense/internal/form"
	"github.com/banshee-data/formsense/internal/monitor"
	"github.com/banshee-data/formsense/internal/reps"
	"github.com/banshee-data/formsense/internal/session"
	"github.com/banshee-data/formsense/internal/timeutil"
)

type replayFlags struct {
	in           string
	exercise     string
	plot         string
	configPath   string
	profilesPath string
	interval     time.Duration
}

// replaySummary is what a replay prints when it finishes.
type replaySummary struct {
	Frames   int
	Statuses map[string]int
	Counts   map[string]int
}

func runReplay(args []string, out io.Writer) error {
	var f replayFlags
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.StringVar(&f.in, "in", "", "JSON-lines frame recording (- for stdin)")
	fs.StringVar(&f.exercise, "exercise", "", "Exercise for frames that do not name one; also selects the plotted trail")
	fs.StringVar(&f.plot, "plot", "", "Write the angle trace of -exercise to this PNG")
	fs.StringVar(&f.configPath, "config", "", "Tuning config JSON")
	fs.StringVar(&f.profilesPath, "profiles", "", "Rep profile YAML")
	fs.DurationVar(&f.interval, "interval", 33*time.Millisecond, "Time between recorded frames")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if f.in == "" {
		return errors.New("-in is required")
	}
	if f.plot != "" && f.exercise == "" {
		return errors.New("-plot requires -exercise")
	}

	tuning, err := loadTuning(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	profiles, err := loadProfiles(f.profilesPath)
	if err != nil {
		return fmt.Errorf("load rep profiles: %w", err)
	}

	var r io.Reader = os.Stdin
	if f.in != "-" {
		file, err := os.Open(f.in)
		if err != nil {
			return err
		}
		defer file.Close()
		r = file
	}

	clock := timeutil.NewMockClock(time.Unix(0, 0).UTC())
	cfg := session.ConfigFromTuning(tuning)
	cfg.Clock = clock
	ccfg := reps.CounterConfigFromTuning(tuning, profiles)
	ccfg.Clock = clock
	sess := session.New(cfg, session.Deps{
		Engine:  form.NewEngine(),
		Counter: reps.NewCounter(ccfg),
	})

	sum, err := replay(context.Background(), sess, clock, r, f.exercise, f.interval)
	if err != nil {
		return err
	}
	printSummary(out, sum)

	if f.plot != "" {
		exercise := form.NormalizeName(f.exercise)
		var profile *reps.Profile
		if p, ok := profiles[exercise]; ok {
			profile = &p
		}
		if err := monitor.SaveAngleTrace(f.plot, exercise, sess.Trail(exercise), profile); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
		fmt.Fprintf(out, "angle trace written to %s\n", f.plot)
	}
	return nil
}

// replay feeds every line of r to sess, advancing clock by interval
// between frames. Blank lines are skipped.
func replay(ctx context.Context, sess *session.Session, clock *timeutil.MockClock, r io.Reader, exercise string, interval time.Duration) (replaySummary, error) {
	sum := replaySummary{Statuses: make(map[string]int)}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(b) == 0 {
			continue
		}
		var fr session.Frame
		if err := json.Unmarshal(b, &fr); err != nil {
			return sum, fmt.Errorf("line %d: %w", line, err)
		}
		if fr.Exercise == "" {
			fr.Exercise = exercise
		}
		rep := sess.ProcessFrame(ctx, fr)
		sum.Frames++
		sum.Statuses[rep.Status]++
		clock.Advance(interval)
	}
	if err := sc.Err(); err != nil {
		return sum, err
	}
	sum.Counts = sess.Counts()
	return sum, nil
}

func printSummary(w io.Writer, sum replaySummary) {
	fmt.Fprintf(w, "frames: %d\n", sum.Frames)
	for _, k := range sortedKeys(sum.Statuses) {
		fmt.Fprintf(w, "  %s: %d\n", k, sum.Statuses[k])
	}
	fmt.Fprintln(w, "reps:")
	for _, k := range sortedKeys(sum.Counts) {
		fmt.Fprintf(w, "  %s: %d\n", k, sum.Counts[k])
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
