package employee

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	"bakehouse/internal/database"
)

// errDuplicate is returned by CreateEmployee when the name or the access
// code is already taken.
var errDuplicate = errors.New("duplicate employee name or access code")

const employeeColumns = `id, name, access_code, email, is_verified, created_at, updated_at`

// Store
type Store struct {
	db *sqlx.DB
}

// NewStore
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// CreateEmployee
func (s *Store) CreateEmployee(e *Employee) error {
	query := `
		INSERT INTO employees (
			name, access_code, email, is_verified
		) VALUES (
			:name, :access_code, :email, :is_verified
		)`
	result, err := s.db.NamedExec(query, e)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return fmt.Errorf("%w: %v", errDuplicate, err)
		}
		log.Errorf("[Employee] CreateEmployee DB 에러: %v", err)
		return err
	}
	if id, err := result.LastInsertId(); err == nil {
		e.ID = uint64(id)
	}
	log.Infof("[Employee] 신규 직원 DB 저장 성공: %s", e.Name)
	return nil
}

// GetByName은 없으면 nil, nil 을 반환합니다.
func (s *Store) GetByName(name string) (*Employee, error) {
	return s.getOne(`SELECT `+employeeColumns+` FROM employees WHERE name = ?`, name)
}

// GetByAccessCode은 없으면 nil, nil 을 반환합니다.
func (s *Store) GetByAccessCode(code string) (*Employee, error) {
	return s.getOne(`SELECT `+employeeColumns+` FROM employees WHERE access_code = ?`, code)
}

func (s *Store) getOne(query string, arg any) (*Employee, error) {
	var e Employee
	if err := s.db.Get(&e, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Errorf("[Employee] 조회 DB 에러: %v", err)
		return nil, err
	}
	return &e, nil
}

// ListNames는 등록된 모든 직원 이름을 set 형태로 반환합니다.
func (s *Store) ListNames() (map[string]bool, error) {
	var names []string
	if err := s.db.Select(&names, `SELECT name FROM employees`); err != nil {
		log.Errorf("[Employee] ListNames DB 에러: %v", err)
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

// ListEmployees
func (s *Store) ListEmployees() ([]Employee, error) {
	var list []Employee
	query := `SELECT ` + employeeColumns + ` FROM employees ORDER BY name ASC`
	if err := s.db.Select(&list, query); err != nil {
		log.Errorf("[Employee] ListEmployees DB 에러: %v", err)
		return nil, err
	}
	return list, nil
}

// UpdateContact는 이메일과 인증 여부를 변경합니다.
func (s *Store) UpdateContact(id uint64, email string, verified bool) error {
	query := `UPDATE employees SET email = ?, is_verified = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.Exec(query, email, verified, time.Now().UTC(), id)
	if err != nil {
		log.Errorf("[Employee] UpdateContact DB 에러: %v", err)
		return err
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
