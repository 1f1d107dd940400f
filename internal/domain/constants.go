package domain

import "time"

const (
	ExtensionZip = ".zip"
	MIMEZip      = "application/zip"

	// SemesterCount — семестры создаются один раз при старте, 1..8.
	SemesterCount  = 8
	SemesterPrefix = "Semester_"

	// MaxArchiveSize максимальный размер загружаемого архива (50 MiB).
	MaxArchiveSize = 50 * 1024 * 1024

	// BatchYearSpan сколько последних лет допустимо в качестве batch year.
	BatchYearSpan = 6

	// RetentionWindow окно, в течение которого архив ещё можно удалить.
	// отсчитывается от modifiedTime, который назначает бэкенд.
	RetentionWindow = 24 * time.Hour

	// ConfirmReplace/ConfirmDelete ключевые слова подтверждения, сверяются побуквенно.
	ConfirmReplace = "REPLACE"
	ConfirmDelete  = "DELETE"
)
