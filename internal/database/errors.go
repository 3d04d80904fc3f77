package database

import "errors"

var (
	// ErrNotFound - строка отсутствует в хранилище
	ErrNotFound = errors.New("record not found")

	// ErrConcurrentModification - версия строки изменилась между
	// чтением и записью
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicate - нарушение уникальности (email, номер столика)
	ErrDuplicate = errors.New("duplicate record")
)
