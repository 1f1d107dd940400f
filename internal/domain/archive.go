package domain

import (
	"context"
	"fmt"
	"io"
	"time"
)

// RemoteFile файл в папке семестра, id выдаёт бэкенд хранилища.
type RemoteFile struct {
	ID   string
	Name string
}

// RecentFile файл с временем изменения, для дашборда за последние 24 часа.
type RecentFile struct {
	ID       string
	Name     string
	Semester string
	Modified time.Time
}

// FileMetadata метаданные одного файла из бэкенда.
type FileMetadata struct {
	Name     string
	Modified time.Time
	ParentID string
}

// SemesterName каноническое имя папки семестра.
func SemesterName(num int) string {
	return fmt.Sprintf("%s%d", SemesterPrefix, num)
}

// RemoteStorage для операций с удалённым файловым хранилищем.
// все вызовы синхронные, списки не кэшируются (кроме маппинга папок,
// который строится один раз при старте и живёт до рестарта процесса).
type RemoteStorage interface {
	FindOrCreateFolder(ctx context.Context, parentID, name string) (string, error)
	ListFiles(ctx context.Context, folderID string) ([]RemoteFile, error)
	ListRecentFiles(ctx context.Context, folderID string, since time.Time) ([]RecentFile, error)
	UploadContent(ctx context.Context, folderID, name string, data []byte) (string, error)
	DownloadContent(ctx context.Context, fileID string) ([]byte, error)
	UpdateContent(ctx context.Context, fileID string, data []byte) error
	// DeleteFile мягкая ошибка: false вместо error, вызывающий обязан проверить.
	DeleteFile(ctx context.Context, fileID string) bool
	GetMetadata(ctx context.Context, fileID string) (FileMetadata, error)
}

// PendingStore временное локальное хранилище байтов загрузки,
// ожидающей разрешения конфликта имён. Take потребляет запись ровно
// один раз: повторный вызов с тем же токеном вернёт ErrNotFound.
type PendingStore interface {
	Put(data []byte) (string, error)
	Take(token string) ([]byte, error)
	Discard(token string)
}

// UploadStatus терминальные состояния первой фазы загрузки.
type UploadStatus int

const (
	StatusUploaded UploadStatus = iota
	StatusConflictPending
)

// ResolveStatus терминальные состояния второй фазы.
type ResolveStatus int

const (
	StatusReplaced ResolveStatus = iota
	StatusMerged
)

// UploadInput первая фаза: сырые данные формы загрузки.
type UploadInput struct {
	Semester  string
	BatchYear string
	Filename  string
	Size      int64
	Data      []byte
}

// UploadOutcome результат первой фазы. При конфликте PendingToken и
// ExistingID передаются в форму разрешения конфликта.
type UploadOutcome struct {
	Status       UploadStatus
	Filename     string
	PendingToken string
	ExistingID   string
}

// ResolveInput вторая фаза: решение по конфликту.
type ResolveInput struct {
	Token      string
	ExistingID string
	Semester   string
	BatchYear  string
	Action     string
	Confirm1   string
	Confirm2   string
}

// ArchiveManagement сценарии работы с архивами курсов.
type ArchiveManagement interface {
	ListSemester(ctx context.Context, semester string) ([]RemoteFile, error)
	RecentUploads(ctx context.Context) ([]RecentFile, error)
	Upload(ctx context.Context, in UploadInput) (*UploadOutcome, error)
	Resolve(ctx context.Context, in ResolveInput) (ResolveStatus, error)
	ArchiveName(ctx context.Context, fileID string) (string, error)
	Delete(ctx context.Context, fileID, confirmation, password string) error
	DownloadArchive(ctx context.Context, fileID string) (string, []byte, error)
	BundleSemester(ctx context.Context, w io.Writer, semester string, fileIDs []string) error
}
