package schedule

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	log "github.com/sirupsen/logrus"

	"bakehouse/internal/jsonfile"
)

var mirrorFilePattern = regexp.MustCompile(`^schedule(\d{4})\.json$`)

// Mirror maintains the schedule<year>.json files in Dir.
type Mirror struct {
	Dir string

	readFile  func(path string, v any) error
	writeFile func(path string, v any) error
}

func NewMirror(dir string) *Mirror {
	return &Mirror{Dir: dir, readFile: jsonfile.Load, writeFile: jsonfile.WriteAtomic}
}

// MirrorOutcome lists what a mirror write touched. Faults are already logged.
type MirrorOutcome struct {
	Files  []string
	Synced []*ScheduleEntry
	Faults []string
}

// FileFor picks the file a date is mirrored into. Week 1 goes to the file of
// the date's calendar year; any other week goes to the newest existing
// schedule file, or the date's own year when the directory has none.
func (m *Mirror) FileFor(entry *ScheduleEntry) string {
	year := entry.Date.Year()
	if entry.WeekNumber != 1 {
		if latest, ok := m.latestYear(); ok {
			year = latest
		}
	}
	return filepath.Join(m.Dir, fmt.Sprintf("schedule%d.json", year))
}

func (m *Mirror) latestYear() (int, bool) {
	items, err := os.ReadDir(m.Dir)
	if err != nil {
		return 0, false
	}
	latest, found := 0, false
	for _, item := range items {
		if item.IsDir() {
			continue
		}
		match := mirrorFilePattern.FindStringSubmatch(item.Name())
		if match == nil {
			continue
		}
		year, _ := strconv.Atoi(match[1])
		if !found || year > latest {
			latest, found = year, true
		}
	}
	return latest, found
}

// Load reads one mirror file. A missing file is empty; a corrupt one is
// reported as empty with a warning. Any other read error is returned and the
// file must not be rewritten.
func (m *Mirror) Load(path string) (YearMirror, error) {
	data := YearMirror{}
	if err := m.readFile(path, &data); err != nil {
		if !errors.Is(err, jsonfile.ErrCorrupt) {
			return nil, err
		}
		log.WithError(err).WithField("file", path).
			Warn("[Mirror] 스케줄 JSON이 손상되어 빈 상태로 시작합니다 (기존 내용은 덮어씁니다)")
		return YearMirror{}, nil
	}
	return data, nil
}

// Write merges entries into their files. Each scraped week replaces the stored
// week of the same number; other weeks stay as they are. Entries are applied in
// order, so a repeated day keeps the last one. I/O errors never propagate.
func (m *Mirror) Write(entries []*ScheduleEntry) MirrorOutcome {
	var outcome MirrorOutcome
	if len(entries) == 0 {
		return outcome
	}

	type batch struct {
		weeks   map[string]WeekMirror
		order   []string
		entries []*ScheduleEntry
	}
	batches := map[string]*batch{}
	var files []string

	for _, e := range entries {
		path := m.FileFor(e)
		b, ok := batches[path]
		if !ok {
			b = &batch{weeks: map[string]WeekMirror{}}
			batches[path] = b
			files = append(files, path)
		}
		key := strconv.Itoa(e.WeekNumber)
		week, ok := b.weeks[key]
		if !ok {
			week = WeekMirror{}
			b.weeks[key] = week
			b.order = append(b.order, key)
		}
		week[e.DayName] = e.Mirror()
		b.entries = append(b.entries, e)
	}

	for _, path := range files {
		b := batches[path]
		data, err := m.Load(path)
		if err != nil {
			outcome.Faults = append(outcome.Faults, fmt.Sprintf("%s: %v", path, err))
			logFault(path, "읽기", err)
			continue
		}
		for _, key := range b.order {
			data[key] = b.weeks[key]
		}

		if err := m.writeFile(path, data); err != nil {
			outcome.Faults = append(outcome.Faults, fmt.Sprintf("%s: %v", path, err))
			logFault(path, "쓰기", err)
			continue
		}
		outcome.Files = append(outcome.Files, path)
		outcome.Synced = append(outcome.Synced, b.entries...)
		log.WithFields(log.Fields{"file": path, "weeks": b.order}).Info("[Mirror] 스케줄 JSON 갱신 완료")
	}
	return outcome
}

// op is "읽기" or "쓰기".
func logFault(path, op string, err error) {
	entry := log.WithError(err).WithField("file", path)
	if errors.Is(err, fs.ErrPermission) {
		entry.WithField("severity", "critical").Errorf("[Mirror] 스케줄 JSON %s 권한이 없습니다", op)
		return
	}
	entry.Warnf("[Mirror] 스케줄 JSON %s 실패", op)
}
