package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ==================== ENUMS ====================

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// IsTerminal reports whether no further status transition is permitted.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

type UserRole string

const (
	UserRoleUser  UserRole = "USER"
	UserRoleAdmin UserRole = "ADMIN"
)

// ==================== JSONB TYPES ====================

// StringList is stored as a jsonb array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for StringList")
	}
	return json.Unmarshal(data, l)
}

// ==================== MODELS ====================

// Task is one uploaded spreadsheet (or product-code list) and the derived
// output files, tracked through the PENDING -> PROCESSING -> COMPLETED/FAILED
// lifecycle. Pipeline fields (Status, Progress, OutputFiles, Error) are
// written exclusively through the task service.
type Task struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Title        string         `gorm:"not null;index" json:"title"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	InputFile    string         `json:"input_file"`
	ProductCodes StringList     `gorm:"type:jsonb" json:"product_codes,omitempty"`
	Status       TaskStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	Progress     int            `gorm:"not null;default:0" json:"progress"`
	OutputFiles  StringList     `gorm:"type:jsonb" json:"output_files"`
	Error        string         `json:"error,omitempty"`
	Completed    bool           `gorm:"not null;default:false" json:"completed"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// ==================== INPUT SOURCE ====================

type InputSourceKind int

const (
	SourceFile InputSourceKind = iota
	SourceProductCodes
)

// InputSource is the tagged variant the processing engine dispatches on,
// instead of checking which model field happens to be non-empty.
type InputSource struct {
	Kind  InputSourceKind
	File  string
	Codes []string
}

func (t *Task) InputSource() InputSource {
	if t.InputFile != "" {
		return InputSource{Kind: SourceFile, File: t.InputFile}
	}
	return InputSource{Kind: SourceProductCodes, Codes: t.ProductCodes}
}
