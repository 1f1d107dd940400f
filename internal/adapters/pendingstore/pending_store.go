package pendingstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"course-share/internal/domain"
)

// LocalPendingStore держит байты конфликтующей загрузки на диске между
// двумя запросами формы. Запись живёт не дольше одного разрешения
// конфликта: Take забирает её ровно один раз и сразу удаляет файл.
type LocalPendingStore struct {
	dir     string
	dirPerm os.FileMode
}

func NewLocalPendingStore(dir string, dirPerm os.FileMode) *LocalPendingStore {
	return &LocalPendingStore{
		dir:     dir,
		dirPerm: dirPerm,
	}
}

// Sweep очищает каталог от записей, переживших рестарт процесса.
// ошибки не фатальны: мусор не мешает новым загрузкам.
func (s *LocalPendingStore) Sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if removeErr := os.Remove(filepath.Join(s.dir, e.Name())); removeErr != nil {
			logrus.Warnf("Failed to sweep pending file %s: %v", e.Name(), removeErr)
		}
	}
}

func (s *LocalPendingStore) Put(data []byte) (string, error) {
	if err := os.MkdirAll(s.dir, s.dirPerm); err != nil {
		return "", fmt.Errorf("failed to create pending dir: %w", err)
	}

	token := uuid.NewString()
	if err := os.WriteFile(s.path(token), data, 0o600); err != nil {
		return "", fmt.Errorf("failed to stash pending upload: %w", err)
	}

	return token, nil
}

// Take возвращает байты и удаляет запись. Второй вызов с тем же токеном
// получает ErrNotFound, поэтому повторная отправка формы безвредна.
func (s *LocalPendingStore) Take(token string) ([]byte, error) {
	if _, err := uuid.Parse(token); err != nil {
		// токен приходит из формы; всё, что не uuid, отклоняется до
		// любых обращений к файловой системе.
		return nil, fmt.Errorf("malformed pending token: %w", domain.ErrNotFound)
	}

	data, err := os.ReadFile(s.path(token))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("pending upload '%s': %w", token, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read pending upload: %w", err)
	}

	if removeErr := os.Remove(s.path(token)); removeErr != nil {
		logrus.Warnf("Failed to remove pending file %s: %v", token, removeErr)
	}

	return data, nil
}

func (s *LocalPendingStore) Discard(token string) {
	if _, err := uuid.Parse(token); err != nil {
		return
	}
	if removeErr := os.Remove(s.path(token)); removeErr != nil && !os.IsNotExist(removeErr) {
		logrus.Warnf("Failed to discard pending file %s: %v", token, removeErr)
	}
}

func (s *LocalPendingStore) path(token string) string {
	return filepath.Join(s.dir, "pending_"+token+domain.ExtensionZip)
}
