package models

import "time"

const (
	// DateFormat - формат календарной даты во всех ключах и запросах
	DateFormat = "2006-01-02"

	// ClockFormat - формат времени начала/конца брони
	ClockFormat = "15:04"

	// DefaultLockTimeout - максимальное ожидание ключа (table, date)
	DefaultLockTimeout = 2 * time.Second

	// DefaultCancelRetries - число повторов отмены при конфликте версий
	DefaultCancelRetries = 3

	// DefaultSlotCacheTTL - время жизни кэша занятости в Redis
	DefaultSlotCacheTTL = 5 * time.Minute

	// NotifyQueueSize - размер очереди уведомлений
	NotifyQueueSize = 1000
)
