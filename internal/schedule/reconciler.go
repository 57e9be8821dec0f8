package schedule

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Reconciler writes scraped days into the database and the JSON mirror.
// The database is authoritative; the mirror is best effort.
type Reconciler struct {
	store  *Store
	mirror *Mirror
	now    func() time.Time
}

func NewReconciler(store *Store, mirror *Mirror) *Reconciler {
	return &Reconciler{store: store, mirror: mirror, now: time.Now}
}

// WriteDate crops names, builds the entry for date and inserts it.
// A date that is already stored fails with ErrDuplicateDate.
func (r *Reconciler) WriteDate(date time.Time, assignments []Assignment) (*ScheduleEntry, error) {
	entry := NewEntry(date, assignments)
	if err := r.store.CreateSchedule(entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// ReplaceDate deletes whatever is stored for date before writing it.
func (r *Reconciler) ReplaceDate(date time.Time, assignments []Assignment) (*ScheduleEntry, error) {
	deleted, err := r.store.DeleteByDate(DateOnly(date))
	if err != nil {
		return NewEntry(date, assignments), err
	}
	if deleted {
		log.Infof("[Reconciler] %s 기존 스케줄을 삭제하고 다시 저장합니다", FormatDate(date))
	}
	return r.WriteDate(date, assignments)
}

// WriteMirror merges entries into the JSON mirror and marks the stored ones
// as synced. Entries that never reached the database (ID 0) are mirrored but
// not marked.
func (r *Reconciler) WriteMirror(entries []*ScheduleEntry) MirrorOutcome {
	outcome := r.mirror.Write(entries)

	var dates []time.Time
	for _, e := range outcome.Synced {
		if e.ID != 0 {
			dates = append(dates, e.Date)
		}
	}
	if err := r.store.MarkJSONSynced(dates, r.now()); err != nil {
		log.WithError(err).Warn("[Reconciler] json_synced_at 갱신 실패")
	}
	return outcome
}

// ResyncMirror rewrites every week that still has unsynced days. Whole weeks
// are reloaded from the database, since a mirror write replaces the week.
func (r *Reconciler) ResyncMirror() (MirrorOutcome, error) {
	unsynced, err := r.store.ListUnsynced()
	if err != nil {
		return MirrorOutcome{}, err
	}
	if len(unsynced) == 0 {
		log.Info("[Reconciler] 미러와 DB가 이미 동기화되어 있습니다")
		return MirrorOutcome{}, nil
	}

	type isoWeek struct{ year, week int }
	seen := map[isoWeek]bool{}
	var entries []*ScheduleEntry
	for _, u := range unsynced {
		y, w := u.Date.ISOWeek()
		key := isoWeek{y, w}
		if seen[key] {
			continue
		}
		seen[key] = true

		week, err := r.store.ListByWeek(y, w)
		if err != nil {
			return MirrorOutcome{}, err
		}
		for i := range week {
			entries = append(entries, &week[i])
		}
	}

	log.Infof("[Reconciler] %d 주(%d 일)를 JSON 미러에 다시 씁니다", len(seen), len(entries))
	return r.WriteMirror(entries), nil
}
