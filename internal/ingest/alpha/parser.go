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

// Session is a parsed Alpha Progression workout session.
type Session struct {
	Name      string
	Date      time.Time
	Duration  string
	Exercises []Exercise
}

// Exercise is a single exercise within a session. The export prescribes either
// a single rep target ("8 reps") or a range ("8-12 reps"); TargetMin equals
// TargetMax for the former.
type Exercise struct {
	Number    int
	Name      string
	Equipment string
	TargetMin int
	TargetMax int
	Sets      []Set
}

// Set is a single set (working or warm-up) as exported.
type Set struct {
	Line             int
	Number           int
	Weight           float64
	IsBodyweightPlus bool
	Reps             int
	// RIR is -1 when the set was logged without effort tracking.
	RIR      float64
	IsWarmup bool
}

// UntrackedRIR marks a set logged without reps in reserve.
const UntrackedRIR = -1

var (
	// sessionHeaderRe matches: "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionHeaderRe = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// exerciseHeaderRe matches: "1. Exercise Name · Equipment · 8 reps[· modifiers]"[;"warmup info"]
	// and the range form "... · 8-12 reps".
	exerciseHeaderRe = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)(?:\s*-\s*(\d+))?\s+reps(.*?)"(?:;"(.+)")?$`)

	// setDataRe matches: 1;115;8;1
	setDataRe = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	// warmupRe matches: WU1 · 37,5 kg · 9 reps
	warmupRe = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	// columnHeaderRe matches: #;KG;REPS;RIR
	columnHeaderRe = regexp.MustCompile(`^#;KG;REPS;RIR$`)
)

// Parse reads an Alpha Progression CSV export and returns parsed sessions.
// Malformed numbers fail the parse with the offending line number.
func Parse(r io.Reader) ([]Session, error) {
	scanner := bufio.NewScanner(r)
	var sessions []Session
	var current *Session
	var currentExercise *Exercise
	lineNo := 0

	flushExercise := func() {
		if current != nil && currentExercise != nil {
			current.Exercises = append(current.Exercises, *currentExercise)
		}
		currentExercise = nil
	}
	flushSession := func() {
		flushExercise()
		if current != nil {
			sessions = append(sessions, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Blank line = session boundary
		if line == "" {
			flushSession()
			continue
		}

		if columnHeaderRe.MatchString(line) {
			continue
		}

		if m := sessionHeaderRe.FindStringSubmatch(line); m != nil {
			flushSession()
			date, err := parseSessionDate(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			current = &Session{Name: m[1], Date: date, Duration: m[3]}
			continue
		}

		if m := exerciseHeaderRe.FindStringSubmatch(line); m != nil {
			if current == nil {
				return nil, fmt.Errorf("line %d: exercise without session: %q", lineNo, line)
			}
			flushExercise()
			num, _ := strconv.Atoi(m[1])
			lo, _ := strconv.Atoi(m[4])
			hi := lo
			if m[5] != "" {
				hi, _ = strconv.Atoi(m[5])
			}
			if hi < lo {
				return nil, fmt.Errorf("line %d: rep range %d-%d is inverted", lineNo, lo, hi)
			}
			currentExercise = &Exercise{
				Number:    num,
				Name:      strings.TrimSpace(m[2]),
				Equipment: strings.TrimSpace(m[3]),
				TargetMin: lo,
				TargetMax: hi,
			}
			if m[7] != "" {
				warmups, err := parseWarmups(m[7], lineNo)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				currentExercise.Sets = append(currentExercise.Sets, warmups...)
			}
			continue
		}

		if m := setDataRe.FindStringSubmatch(line); m != nil {
			if currentExercise == nil {
				return nil, fmt.Errorf("line %d: set data without exercise: %q", lineNo, line)
			}
			setNum, _ := strconv.Atoi(m[1])
			reps, _ := strconv.Atoi(m[3])
			weight, isBW, err := parseWeight(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: weight: %w", lineNo, err)
			}
			rir, err := parseEuropeanFloat(m[4])
			if err != nil {
				return nil, fmt.Errorf("line %d: rir: %w", lineNo, err)
			}
			currentExercise.Sets = append(currentExercise.Sets, Set{
				Line:             lineNo,
				Number:           setNum,
				Weight:           weight,
				IsBodyweightPlus: isBW,
				Reps:             reps,
				RIR:              rir,
			})
			continue
		}

		// Unknown line: skip silently (could be notes or other metadata)
	}

	flushSession()
	return sessions, scanner.Err()
}

// parseSessionDate parses "2026-02-19 4:54" into a time.Time.
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// parseWarmups extracts warm-up sets from the exercise header's second field.
// Example: "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps"
func parseWarmups(s string, lineNo int) ([]Set, error) {
	var sets []Set
	for _, part := range strings.Split(s, "<br>") {
		m := warmupRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		reps, _ := strconv.Atoi(m[3])
		weight, isBW, err := parseWeight(m[2])
		if err != nil {
			return nil, fmt.Errorf("warm-up %d: %w", num, err)
		}
		sets = append(sets, Set{
			Line:             lineNo,
			Number:           num,
			Weight:           weight,
			IsBodyweightPlus: isBW,
			Reps:             reps,
			RIR:              UntrackedRIR,
			IsWarmup:         true,
		})
	}
	return sets, nil
}

// parseWeight handles European decimals and bodyweight-plus notation.
// "+35" -> (35, true), "102,5" -> (102.5, false), "+0" -> (0, true)
func parseWeight(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		w, err := parseEuropeanFloat(rest)
		return w, true, err
	}
	w, err := parseEuropeanFloat(s)
	return w, false, err
}

// parseEuropeanFloat converts a European decimal string to float64.
// "102,5" -> 102.5, "0,5" -> 0.5
func parseEuropeanFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return f, nil
}
