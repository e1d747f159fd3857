// Package alpha imports Alpha Progression CSV exports as logged workouts.
package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Session is one workout in an export.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string // e.g. "1:02 hr"
	Exercises []Exercise
}

// Exercise is one numbered exercise block within a session.
type Exercise struct {
	Number     int
	Name       string
	Equipment  string
	TargetReps int
	Sets       []Set
}

// Set is a warmup or working set. Bodyweight exercises carry the added load
// in WeightKg with IsBodyweightPlus set.
type Set struct {
	Number           int
	WeightKg         float64
	IsBodyweightPlus bool
	Reps             int
	RIR              float64
	IsWarmup         bool
}

var (
	// "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Exercise Name · Equipment · 8 reps[ · modifiers]"[;"warmups"]
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setDataRe = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	columnHeaderRe = regexp.MustCompile(`^#;KG;REPS;RIR$`)

	durationRe = regexp.MustCompile(`^(?:(\d+):(\d{2})\s*hr|(\d+)\s*min)$`)
)

// parser accumulates sessions line by line. A blank line or a new session
// header closes the session being built.
type parser struct {
	sessions []Session
	session  *Session
	exercise *Exercise
}

func (p *parser) closeExercise() {
	if p.exercise != nil {
		p.session.Exercises = append(p.session.Exercises, *p.exercise)
		p.exercise = nil
	}
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

func (p *parser) line(line string) error {
	if line == "" {
		p.closeSession()
		return nil
	}
	if columnHeaderRe.MatchString(line) {
		return nil
	}

	if m := sessionHeaderRe.FindStringSubmatch(line); m != nil {
		p.closeSession()
		date, err := parseSessionDate(m[2])
		if err != nil {
			return err
		}
		p.session = &Session{Name: m[1], Date: date, Duration: m[3]}
		return nil
	}

	if m := exerciseHeaderRe.FindStringSubmatch(line); m != nil {
		if p.session == nil {
			return fmt.Errorf("exercise without session: %q", line)
		}
		p.closeExercise()
		num, _ := strconv.Atoi(m[1])
		target, _ := strconv.Atoi(m[4])
		p.exercise = &Exercise{
			Number:     num,
			Name:       strings.TrimSpace(m[2]),
			Equipment:  strings.TrimSpace(m[3]),
			TargetReps: target,
		}
		if m[6] != "" {
			p.exercise.Sets = append(p.exercise.Sets, parseWarmups(m[6])...)
		}
		return nil
	}

	if m := setDataRe.FindStringSubmatch(line); m != nil {
		if p.exercise == nil {
			return fmt.Errorf("set data without exercise: %q", line)
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		p.exercise.Sets = append(p.exercise.Sets, Set{
			Number:           num,
			WeightKg:         weight,
			IsBodyweightPlus: bw,
			Reps:             reps,
			RIR:              parseEuropeanFloat(m[4]),
		})
	}
	// Anything else is notes or metadata.
	return nil
}

// Parse reads an Alpha Progression CSV export.
func Parse(r io.Reader) ([]Session, error) {
	var p parser
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

// parseSessionDate parses "2026-02-19 4:54" or "2026-02-19 16:54".
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parsing session date %q", s)
}

// DurationMinutes converts the session duration ("1:02 hr" or "45 min") to
// minutes. ok is false for formats it does not recognise.
func (s Session) DurationMinutes() (minutes int, ok bool) {
	m := durationRe.FindStringSubmatch(strings.TrimSpace(s.Duration))
	if m == nil {
		return 0, false
	}
	if m[3] != "" {
		n, _ := strconv.Atoi(m[3])
		return n, true
	}
	h, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return h*60 + mins, true
}

// parseWarmups extracts warmup sets from "WU1 · 37,5 kg · 9 reps<br>WU2 · ...".
func parseWarmups(s string) []Set {
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		weight, bw := parseWeight(m[2])
		reps, _ := strconv.Atoi(m[3])
		sets = append(sets, Set{
			Number:           num,
			WeightKg:         weight,
			IsBodyweightPlus: bw,
			Reps:             reps,
			IsWarmup:         true,
		})
	}
	return sets
}

// parseWeight handles decimal commas and the "+N" bodyweight-plus notation.
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseEuropeanFloat(rest), true
	}
	return parseEuropeanFloat(s), false
}

// parseEuropeanFloat reads "102,5" as 102.5. Unparseable input reads as 0.
func parseEuropeanFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}
