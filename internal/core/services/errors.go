package services

import "errors"

// Task errors
var (
	ErrTaskNotFound      = errors.New("task: not found")
	ErrTaskForbidden     = errors.New("task: caller is not the owner")
	ErrDuplicateTitle    = errors.New("task: a task with this title already exists")
	ErrTitleRequired     = errors.New("task: title is required")
	ErrInputRequired     = errors.New("task: a file or a product code list is required")
	ErrInvalidTransition = errors.New("task: invalid status transition")
	ErrProgressDecreased = errors.New("task: progress must not decrease")
	ErrTerminalState     = errors.New("task: task is in a terminal state")
)

// Upload errors
var (
	ErrUnsupportedFileType = errors.New("upload: only spreadsheet files (.xlsx, .xls) are allowed")
	ErrFileTooLarge        = errors.New("upload: file exceeds the size limit")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user: not found")
	ErrUserAlreadyExists  = errors.New("user: email already registered")
	ErrInvalidCredentials = errors.New("user: invalid email or password")
	ErrUserInvalidInput   = errors.New("user: invalid input")
)
