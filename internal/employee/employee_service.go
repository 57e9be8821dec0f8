package employee

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"bakehouse/internal/schedule"
)

// 코드 충돌 시 재시도 횟수
const maxCodeAttempts = 5

// Service
type Service struct {
	store    *Store
	registry *Registry
	newCode  func() (string, error)
}

// NewService
func NewService(store *Store, registry *Registry) *Service {
	return &Service{store: store, registry: registry, newCode: GenerateAccessCode}
}

// GenerateAccessCode returns a random 5-digit numeric code (10000-99999).
func GenerateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(90000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%05d", n.Int64()+10000), nil
}

// Discover registers every name that is not yet a known employee, in the
// database and in employees.json. Names are matched exactly on their
// cropped form. A registry write failure is logged and reported, not returned.
func (s *Service) Discover(names []string) (*Discovery, error) {
	result := &Discovery{}
	if len(names) == 0 {
		return result, nil
	}

	known, err := s.store.ListNames()
	if err != nil {
		return result, err
	}

	var observed, fresh []string
	seen := map[string]bool{}
	for _, raw := range names {
		name := schedule.CropName(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		observed = append(observed, name)
		if !known[name] {
			fresh = append(fresh, name)
		}
	}

	for _, name := range fresh {
		created, err := s.create(name, nil, false)
		if err != nil {
			return result, fmt.Errorf("register %q: %w", name, err)
		}
		if created {
			result.Created = append(result.Created, name)
		}
	}

	if len(result.Created) > 0 {
		log.WithField("names", result.Created).Infof("[Employee] 신규 직원 %d 명 등록", len(result.Created))
	}

	// 이미 DB에 있던 이름이라도 JSON 에 없으면 채워 넣습니다.
	if _, err := s.registry.AddMissing(observed); err != nil {
		result.RegistryFault = err.Error()
	}
	return result, nil
}

// create inserts name with a fresh access code, retrying on code collisions.
// It reports false when another writer registered the name first.
func (s *Service) create(name string, email *string, verified bool) (bool, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return false, err
		}
		e := &Employee{Name: name, AccessCode: code, Email: email, IsVerified: verified}
		err = s.store.CreateEmployee(e)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, errDuplicate) {
			return false, err
		}

		existing, lookupErr := s.store.GetByName(name)
		if lookupErr != nil {
			return false, lookupErr
		}
		if existing != nil {
			return false, nil
		}
		log.Debugf("[Employee] 액세스 코드 충돌, 재시도 (%s)", name)
	}
	return false, fmt.Errorf("no free access code after %d attempts", maxCodeAttempts)
}

// FastCodeLogin finds the employee owning the access code.
func (s *Service) FastCodeLogin(code string) (*Employee, error) {
	code = strings.TrimSpace(code)
	if len(code) != 5 {
		return nil, ErrInvalidAccessCode
	}
	e, err := s.store.GetByAccessCode(code)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrInvalidAccessCode
	}
	return e, nil
}

// Activate binds an email to the employee once name and access code match,
// in the database and in employees.json.
func (s *Service) Activate(name, code, email string) (*Employee, error) {
	name = schedule.CropName(name)
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email %q", email)
	}

	e, err := s.store.GetByName(name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEmployeeNotFound
	}
	if e.AccessCode != strings.TrimSpace(code) {
		return nil, ErrInvalidAccessCode
	}
	if e.IsVerified {
		return nil, ErrAlreadyVerified
	}

	if err := s.store.UpdateContact(e.ID, email, true); err != nil {
		return nil, err
	}
	e.Email, e.IsVerified = &email, true

	if err := s.registry.Set(e.Name, RegistryEntry{Email: email, IsVerified: true}); err != nil {
		log.WithError(err).Warnf("[Employee] %s 활성화는 DB에만 반영되었습니다", e.Name)
	}
	log.Infof("[Employee] 직원 활성화 완료: %s", e.Name)
	return e, nil
}

// ImportRegistry creates a database employee for every employees.json entry
// that is missing, carrying over email and is_verified.
func (s *Service) ImportRegistry() (int, error) {
	entries, err := s.registry.Load()
	if err != nil {
		return 0, err
	}
	known, err := s.store.ListNames()
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	created := 0
	for _, name := range names {
		if known[name] {
			continue
		}
		entry := entries[name]
		var email *string
		if entry.Email != "" {
			email = &entry.Email
		}
		ok, err := s.create(name, email, entry.IsVerified)
		if err != nil {
			return created, fmt.Errorf("import %q: %w", name, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

// ExportRegistry rewrites employees.json from the database.
func (s *Service) ExportRegistry() (int, error) {
	list, err := s.store.ListEmployees()
	if err != nil {
		return 0, err
	}
	entries := make(map[string]RegistryEntry, len(list))
	for _, e := range list {
		entry := RegistryEntry{IsVerified: e.IsVerified}
		if e.Email != nil {
			entry.Email = *e.Email
		}
		entries[e.Name] = entry
	}
	if err := s.registry.Replace(entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// ListEmployees
func (s *Service) ListEmployees() ([]Employee, error) {
	return s.store.ListEmployees()
}
