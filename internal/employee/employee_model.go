package employee

import (
	"errors"
	"time"
)

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInvalidAccessCode = errors.New("invalid access code")
	ErrAlreadyVerified   = errors.New("employee is already verified")
)

// Employee는 'employees' 테이블의 스키마를 Go 코드로 표현합니다.
type Employee struct {
	ID         uint64    `json:"id" db:"id"`                   // bigint UNSIGNED
	Name       string    `json:"name" db:"name"`               // varchar(150), 잘린(crop) 이름
	AccessCode string    `json:"-" db:"access_code"`           // char(5)
	Email      *string   `json:"email" db:"email"`             // varchar(150) NULL
	IsVerified bool      `json:"is_verified" db:"is_verified"` // tinyint(1)
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// RegistryEntry is one value of employees.json.
type RegistryEntry struct {
	Email      string `json:"email"`
	IsVerified bool   `json:"is_verified"`
}

// Discovery is what one Discover call changed.
type Discovery struct {
	Created       []string `json:"created"`
	RegistryFault string   `json:"registry_fault,omitempty"`
}
