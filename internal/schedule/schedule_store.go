package schedule

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/database"
)

// ErrDuplicateDate is returned when a date is written twice without deleting it first.
var ErrDuplicateDate = errors.New("schedule for this date already exists")

// 날짜 컬럼은 드라이버와 무관하게 'YYYY-MM-DD' 문자열로 바인딩합니다.
const sqlDateLayout = "2006-01-02"

const scheduleColumns = `
	id, schedule_date, week_number, day_name, assignments,
	json_synced_at, created_at, updated_at`

// Store
type Store struct {
	db *sqlx.DB
}

// NewStore
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// CreateSchedule는 하루치 스케줄을 INSERT 합니다.
// 같은 날짜가 이미 있으면 ErrDuplicateDate를 감싼 에러를 반환합니다.
func (s *Store) CreateSchedule(e *ScheduleEntry) error {
	query := `
		INSERT INTO schedules (
			schedule_date, week_number, day_name, assignments
		) VALUES (?, ?, ?, ?)`
	result, err := s.db.Exec(query, e.Date.Format(sqlDateLayout), e.WeekNumber, e.DayName, e.Assignments)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateDate, FormatDate(e.Date))
		}
		log.Errorf("[Schedule] CreateSchedule DB 에러: %v", err)
		return err
	}
	id, err := result.LastInsertId()
	if err == nil {
		e.ID = uint64(id)
	}
	log.Debugf("[Schedule] %s 스케줄 저장 (%d 건)", FormatDate(e.Date), len(e.Assignments))
	return nil
}

// DeleteByDate는 해당 날짜의 스케줄을 삭제하고 삭제 여부를 반환합니다.
func (s *Store) DeleteByDate(date time.Time) (bool, error) {
	result, err := s.db.Exec(`DELETE FROM schedules WHERE schedule_date = ?`, date.Format(sqlDateLayout))
	if err != nil {
		log.Errorf("[Schedule] DeleteByDate DB 에러: %v", err)
		return false, err
	}
	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// GetByDate는 없으면 nil, nil 을 반환합니다.
func (s *Store) GetByDate(date time.Time) (*ScheduleEntry, error) {
	var entry ScheduleEntry
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE schedule_date = ?`
	err := s.db.Get(&entry, query, date.Format(sqlDateLayout))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("[Schedule] GetByDate DB 에러: %v", err)
		return nil, err
	}
	return &entry, nil
}

// ListBetween returns the entries from..to inclusive, oldest first.
func (s *Store) ListBetween(from, to time.Time) ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE schedule_date BETWEEN ? AND ?
		ORDER BY schedule_date ASC`
	err := s.db.Select(&entries, query, from.Format(sqlDateLayout), to.Format(sqlDateLayout))
	if err != nil {
		log.Errorf("[Schedule] ListBetween DB 에러: %v", err)
		return nil, err
	}
	return entries, nil
}

// ListByWeek returns the stored days of ISO week `week` of ISO year `year`.
func (s *Store) ListByWeek(year, week int) ([]ScheduleEntry, error) {
	start := ISOWeekStart(year, week)
	return s.ListBetween(start, start.AddDate(0, 0, 6))
}

// ListUnsynced는 JSON 미러에 아직 반영되지 않은 스케줄 목록을 반환합니다.
func (s *Store) ListUnsynced() ([]ScheduleEntry, error) {
	var entries []ScheduleEntry
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE json_synced_at IS NULL
		ORDER BY schedule_date ASC`
	if err := s.db.Select(&entries, query); err != nil {
		log.Errorf("[Schedule] ListUnsynced DB 에러: %v", err)
		return nil, err
	}
	return entries, nil
}

// MarkJSONSynced stamps json_synced_at on the given dates.
func (s *Store) MarkJSONSynced(dates []time.Time, at time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	args := make([]string, 0, len(dates))
	for _, d := range dates {
		args = append(args, d.Format(sqlDateLayout))
	}

	query, params, err := sqlx.In(`
		UPDATE schedules
		SET json_synced_at = ?, updated_at = ?
		WHERE schedule_date IN (?)`, at.UTC(), at.UTC(), args)
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(s.db.Rebind(query), params...); err != nil {
		log.Errorf("[Schedule] MarkJSONSynced DB 에러: %v", err)
		return err
	}
	return nil
}
