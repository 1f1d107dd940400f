package usecases

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"course-share/internal/domain"
)

// MergeArchives объединяет два zip-архива: сначала записи base, затем
// записи overlay. При совпадении пути побеждает версия из overlay.
// дедупликация явная: записи base, путь которых есть в overlay,
// пропускаются, а не перекрываются за счёт "последний выигрывает" —
// поведение читателей при дубликатах не гарантируется форматом.
func MergeArchives(base, overlay []byte) ([]byte, error) {
	baseReader, err := zip.NewReader(bytes.NewReader(base), int64(len(base)))
	if err != nil {
		return nil, fmt.Errorf("could not open base archive: %w", domain.ErrCorruptArchive)
	}

	overlayReader, err := zip.NewReader(bytes.NewReader(overlay), int64(len(overlay)))
	if err != nil {
		return nil, fmt.Errorf("could not open overlay archive: %w", domain.ErrCorruptArchive)
	}

	overlayNames := make(map[string]struct{}, len(overlayReader.File))
	for _, f := range overlayReader.File {
		overlayNames[f.Name] = struct{}{}
	}

	var buf bytes.Buffer
	merged := zip.NewWriter(&buf)

	for _, f := range baseReader.File {
		if _, shadowed := overlayNames[f.Name]; shadowed {
			continue
		}
		if copyErr := copyRawEntry(merged, f); copyErr != nil {
			return nil, copyErr
		}
	}

	for _, f := range overlayReader.File {
		if copyErr := copyRawEntry(merged, f); copyErr != nil {
			return nil, copyErr
		}
	}

	if closeErr := merged.Close(); closeErr != nil {
		return nil, fmt.Errorf("failed to finalize merged archive: %w", closeErr)
	}

	return buf.Bytes(), nil
}

// copyRawEntry переносит запись без перепаковки: сжатые байты, метод
// сжатия и метаданные (включая временные метки) сохраняются как есть.
func copyRawEntry(w *zip.Writer, f *zip.File) error {
	src, err := f.OpenRaw()
	if err != nil {
		return fmt.Errorf("could not open entry '%s': %w", f.Name, domain.ErrCorruptArchive)
	}

	header := f.FileHeader
	dst, err := w.CreateRaw(&header)
	if err != nil {
		return fmt.Errorf("failed to create entry '%s': %w", f.Name, err)
	}

	if _, copyErr := io.Copy(dst, src); copyErr != nil {
		return fmt.Errorf("failed to copy entry '%s': %w", f.Name, copyErr)
	}

	return nil
}

// VerifyArchive проверяет, что каждый объявленный файл читается целиком
// и контрольные суммы сходятся. Выполняется до любых обращений к бэкенду.
func VerifyArchive(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("invalid zip format: %w", domain.ErrCorruptArchive)
	}

	for _, f := range r.File {
		rc, openErr := f.Open()
		if openErr != nil {
			return fmt.Errorf("could not open entry '%s': %w", f.Name, domain.ErrCorruptArchive)
		}

		// io.Copy до конца записи заставляет reader сверить CRC.
		_, readErr := io.Copy(io.Discard, rc)
		closeErr := rc.Close()
		if readErr != nil || closeErr != nil {
			return fmt.Errorf("corrupt entry '%s': %w", f.Name, domain.ErrCorruptArchive)
		}
	}

	return nil
}
