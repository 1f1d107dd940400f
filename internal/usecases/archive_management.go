package usecases

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"course-share/internal/domain"
)

// ArchiveUseCase сценарии работы с архивами: загрузка с разрешением
// конфликтов имён, удаление в пределах окна хранения, выборки для
// страниц. Маппинг семестр -> id папки строится один раз при старте
// (ProvisionSemesterFolders) и передаётся сюда в конструктор; никакой
// повторной инициализации во время работы процесса.
type ArchiveUseCase struct {
	storage       domain.RemoteStorage
	pending       domain.PendingStore
	folders       map[string]string
	adminPassword string
	now           func() time.Time
}

func NewArchiveUseCase(
	storage domain.RemoteStorage,
	pending domain.PendingStore,
	folders map[string]string,
	adminPassword string,
) *ArchiveUseCase {
	return &ArchiveUseCase{
		storage:       storage,
		pending:       pending,
		folders:       folders,
		adminPassword: adminPassword,
		now:           time.Now,
	}
}

// ProvisionSemesterFolders находит или создаёт папки Semester_1..Semester_8
// под корневой папкой. Вызывается один раз при старте; ошибка любой папки
// прерывает запуск процесса.
func ProvisionSemesterFolders(ctx context.Context, storage domain.RemoteStorage, rootID string) (map[string]string, error) {
	folders := make(map[string]string, domain.SemesterCount)

	for num := 1; num <= domain.SemesterCount; num++ {
		name := domain.SemesterName(num)
		folderID, err := storage.FindOrCreateFolder(ctx, rootID, name)
		if err != nil {
			return nil, fmt.Errorf("could not provision folder '%s': %w", name, err)
		}
		folders[name] = folderID

		logrus.WithFields(logrus.Fields{
			"semester":  name,
			"folder_id": folderID,
		}).Info("Semester folder ready")
	}

	return folders, nil
}

func (uc *ArchiveUseCase) folderID(semester string) (string, error) {
	folderID, ok := uc.folders[semester]
	if !ok {
		return "", fmt.Errorf("unknown semester '%s': %w", semester, domain.ErrNotFound)
	}
	return folderID, nil
}

func (uc *ArchiveUseCase) ListSemester(ctx context.Context, semester string) ([]domain.RemoteFile, error) {
	folderID, err := uc.folderID(semester)
	if err != nil {
		return nil, err
	}

	files, err := uc.storage.ListFiles(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list semester '%s': %w", semester, err)
	}

	return files, nil
}

// RecentUploads файлы, изменённые за последние 24 часа, по всем семестрам.
func (uc *ArchiveUseCase) RecentUploads(ctx context.Context) ([]domain.RecentFile, error) {
	cutoff := uc.now().UTC().Add(-domain.RetentionWindow)
	var all []domain.RecentFile

	// обход по номеру, а не по map, чтобы порядок на дашборде был стабильным.
	for num := 1; num <= domain.SemesterCount; num++ {
		semester := domain.SemesterName(num)
		folderID, err := uc.folderID(semester)
		if err != nil {
			return nil, err
		}

		files, listErr := uc.storage.ListRecentFiles(ctx, folderID, cutoff)
		if listErr != nil {
			return nil, fmt.Errorf("failed to list recent files for '%s': %w", semester, listErr)
		}

		for _, f := range files {
			f.Semester = semester
			all = append(all, f)
		}
	}

	return all, nil
}

// validateUpload правила первой фазы; нарушение любого правила — отказ
// до каких-либо обращений к бэкенду.
func (uc *ArchiveUseCase) validateUpload(in domain.UploadInput) error {
	if len(in.Data) == 0 {
		return fmt.Errorf("empty upload payload: %w", domain.ErrValidation)
	}

	if !strings.HasSuffix(strings.ToLower(in.Filename), domain.ExtensionZip) {
		return fmt.Errorf("only %s files are allowed: %w", domain.ExtensionZip, domain.ErrValidation)
	}

	if in.Size > domain.MaxArchiveSize || int64(len(in.Data)) > domain.MaxArchiveSize {
		return fmt.Errorf("file exceeds maximum size of %d bytes: %w", domain.MaxArchiveSize, domain.ErrValidation)
	}

	if err := uc.validateBatchYear(in.BatchYear); err != nil {
		return err
	}

	return VerifyArchive(in.Data)
}

func (uc *ArchiveUseCase) validateBatchYear(batchYear string) error {
	for _, year := range domain.RecentBatchYears(uc.now()) {
		if batchYear == year {
			return nil
		}
	}
	return fmt.Errorf("batch year '%s' is not in the allowed range: %w", batchYear, domain.ErrValidation)
}

// Upload первая фаза. Если архива с каноническим именем ещё нет —
// загружает сразу. Если есть — складывает байты в pending store и
// возвращает токен для формы разрешения конфликта.
func (uc *ArchiveUseCase) Upload(ctx context.Context, in domain.UploadInput) (*domain.UploadOutcome, error) {
	folderID, err := uc.folderID(in.Semester)
	if err != nil {
		return nil, err
	}

	if validateErr := uc.validateUpload(in); validateErr != nil {
		return nil, validateErr
	}

	canonical := in.BatchYear + domain.ExtensionZip

	existing, err := uc.findExisting(ctx, folderID, canonical)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		fileID, uploadErr := uc.storage.UploadContent(ctx, folderID, canonical, in.Data)
		if uploadErr != nil {
			return nil, fmt.Errorf("failed to upload '%s': %w", canonical, uploadErr)
		}

		logrus.WithFields(logrus.Fields{
			"operation": "upload",
			"semester":  in.Semester,
			"filename":  canonical,
			"file_id":   fileID,
		}).Info("Archive uploaded")

		return &domain.UploadOutcome{Status: domain.StatusUploaded, Filename: canonical}, nil
	}

	token, putErr := uc.pending.Put(in.Data)
	if putErr != nil {
		return nil, fmt.Errorf("failed to stash pending upload: %w", putErr)
	}

	return &domain.UploadOutcome{
		Status:       domain.StatusConflictPending,
		Filename:     canonical,
		PendingToken: token,
		ExistingID:   existing.ID,
	}, nil
}

func (uc *ArchiveUseCase) findExisting(ctx context.Context, folderID, name string) (*domain.RemoteFile, error) {
	files, err := uc.storage.ListFiles(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing archive: %w", err)
	}

	for _, f := range files {
		if f.Name == name {
			return &f, nil
		}
	}
	return nil, nil
}

// Resolve вторая фаза. Pending upload потребляется здесь ровно один раз,
// в самом начале и независимо от исхода: повторная отправка того же
// токена ничего в хранилище не изменит.
func (uc *ArchiveUseCase) Resolve(ctx context.Context, in domain.ResolveInput) (domain.ResolveStatus, error) {
	// Take идёт раньше всех проверок: какой бы ни была остальная форма,
	// после этого запроса записи на диске быть не должно.
	data, takeErr := uc.pending.Take(in.Token)
	if takeErr != nil {
		return 0, fmt.Errorf("pending upload not found or already resolved: %w", takeErr)
	}

	folderID, err := uc.folderID(in.Semester)
	if err != nil {
		return 0, err
	}

	if yearErr := uc.validateBatchYear(in.BatchYear); yearErr != nil {
		return 0, yearErr
	}

	canonical := in.BatchYear + domain.ExtensionZip

	switch in.Action {
	case "replace":
		return uc.resolveReplace(ctx, folderID, canonical, in, data)
	case "merge":
		return uc.resolveMerge(ctx, canonical, in.ExistingID, data)
	default:
		return 0, fmt.Errorf("unknown resolution action '%s': %w", in.Action, domain.ErrValidation)
	}
}

func (uc *ArchiveUseCase) resolveReplace(ctx context.Context, folderID, canonical string, in domain.ResolveInput, data []byte) (domain.ResolveStatus, error) {
	if in.Confirm1 != domain.ConfirmReplace || in.Confirm2 != domain.ConfirmReplace {
		return 0, fmt.Errorf("both confirmations must read %s exactly: %w", domain.ConfirmReplace, domain.ErrValidation)
	}

	if !uc.storage.DeleteFile(ctx, in.ExistingID) {
		return 0, fmt.Errorf("could not delete existing archive: %w", domain.ErrBackend)
	}

	if _, uploadErr := uc.storage.UploadContent(ctx, folderID, canonical, data); uploadErr != nil {
		// старый архив уже удалён; компенсирующего восстановления нет,
		// ошибка отдаётся пользователю как есть.
		return 0, fmt.Errorf("replacement upload failed after deletion: %w", uploadErr)
	}

	logrus.WithFields(logrus.Fields{
		"operation": "replace",
		"filename":  canonical,
	}).Info("Archive replaced")

	return domain.StatusReplaced, nil
}

func (uc *ArchiveUseCase) resolveMerge(ctx context.Context, canonical, existingID string, data []byte) (domain.ResolveStatus, error) {
	existing, err := uc.storage.DownloadContent(ctx, existingID)
	if err != nil {
		return 0, fmt.Errorf("failed to download existing archive: %w", err)
	}

	merged, mergeErr := MergeArchives(existing, data)
	if mergeErr != nil {
		return 0, mergeErr
	}

	if updateErr := uc.storage.UpdateContent(ctx, existingID, merged); updateErr != nil {
		return 0, fmt.Errorf("failed to update merged archive: %w", updateErr)
	}

	logrus.WithFields(logrus.Fields{
		"operation": "merge",
		"filename":  canonical,
	}).Info("Archives merged")

	return domain.StatusMerged, nil
}

func (uc *ArchiveUseCase) ArchiveName(ctx context.Context, fileID string) (string, error) {
	meta, err := uc.storage.GetMetadata(ctx, fileID)
	if err != nil {
		return "", err
	}
	return meta.Name, nil
}

// Delete удаляет архив, если со времени его изменения прошло меньше 24
// часов. Окно перепроверяется по свежим метаданным в момент удаления,
// а не по состоянию на момент отрисовки страницы.
func (uc *ArchiveUseCase) Delete(ctx context.Context, fileID, confirmation, password string) error {
	if confirmation != domain.ConfirmDelete {
		return fmt.Errorf("confirmation must read %s exactly: %w", domain.ConfirmDelete, domain.ErrValidation)
	}

	if password != uc.adminPassword {
		return fmt.Errorf("incorrect admin password: %w", domain.ErrValidation)
	}

	meta, err := uc.storage.GetMetadata(ctx, fileID)
	if err != nil {
		return fmt.Errorf("failed to fetch archive metadata: %w", err)
	}

	if uc.now().UTC().Sub(meta.Modified) >= domain.RetentionWindow {
		return fmt.Errorf("archive '%s' is older than 24 hours: %w", meta.Name, domain.ErrRetentionExpired)
	}

	if !uc.storage.DeleteFile(ctx, fileID) {
		return fmt.Errorf("could not delete archive '%s': %w", meta.Name, domain.ErrBackend)
	}

	logrus.WithFields(logrus.Fields{
		"operation": "delete",
		"filename":  meta.Name,
		"file_id":   fileID,
	}).Info("Archive deleted")

	return nil
}

func (uc *ArchiveUseCase) DownloadArchive(ctx context.Context, fileID string) (string, []byte, error) {
	meta, err := uc.storage.GetMetadata(ctx, fileID)
	if err != nil {
		return "", nil, err
	}

	data, downloadErr := uc.storage.DownloadContent(ctx, fileID)
	if downloadErr != nil {
		return "", nil, downloadErr
	}

	return meta.Name, data, nil
}

// BundleSemester пишет в w zip с выбранными (или всеми) архивами
// семестра. Недоступные файлы пропускаются с предупреждением, как и
// в остальных выборках: частичная выдача лучше пустой.
func (uc *ArchiveUseCase) BundleSemester(ctx context.Context, w io.Writer, semester string, fileIDs []string) error {
	folderID, err := uc.folderID(semester)
	if err != nil {
		return err
	}

	if len(fileIDs) == 0 {
		files, listErr := uc.storage.ListFiles(ctx, folderID)
		if listErr != nil {
			return fmt.Errorf("failed to list semester '%s': %w", semester, listErr)
		}
		for _, f := range files {
			fileIDs = append(fileIDs, f.ID)
		}
	}

	bundle := zip.NewWriter(w)
	defer func() {
		if closeErr := bundle.Close(); closeErr != nil {
			logrus.Errorf("Failed to close bundle writer: %v", closeErr)
		}
	}()

	for _, fileID := range fileIDs {
		meta, metaErr := uc.storage.GetMetadata(ctx, fileID)
		if metaErr != nil {
			logrus.Warnf("Skipping bundle entry %s: %v", fileID, metaErr)
			continue
		}

		data, downloadErr := uc.storage.DownloadContent(ctx, fileID)
		if downloadErr != nil {
			logrus.Warnf("Skipping bundle entry %s: %v", fileID, downloadErr)
			continue
		}

		entry, createErr := bundle.Create(meta.Name)
		if createErr != nil {
			return fmt.Errorf("failed to create bundle entry '%s': %w", meta.Name, createErr)
		}
		if _, writeErr := entry.Write(data); writeErr != nil {
			return fmt.Errorf("failed to write bundle entry '%s': %w", meta.Name, writeErr)
		}
	}

	return nil
}
