package server

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"course-share/internal/config"
	"course-share/internal/domain"
)

type Handler struct {
	uc            domain.ArchiveManagement
	sessions      *SessionStore
	staticPath    string
	maxUploadSize int64
	adminPassword string
	messages      config.Messages
	now           func() time.Time
}

func NewHandler(
	uc domain.ArchiveManagement,
	sessions *SessionStore,
	staticPath string,
	maxUploadSize int64,
	adminPassword string,
	messages config.Messages,
) *Handler {
	return &Handler{
		uc:            uc,
		sessions:      sessions,
		staticPath:    staticPath,
		maxUploadSize: maxUploadSize,
		adminPassword: adminPassword,
		messages:      messages,
		now:           time.Now,
	}
}

// RegisterRoutes вешает все маршруты на mux; метод и путь задаются
// шаблонами ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /admin/login", h.AdminLoginForm)
	mux.HandleFunc("POST /admin/login", h.AdminLoginProcess)
	mux.HandleFunc("GET /admin", h.AdminDashboard)
	mux.HandleFunc("GET /admin/upload", h.AdminUploadForm)
	mux.HandleFunc("POST /admin/upload", h.AdminUploadProcess)
	mux.HandleFunc("POST /admin/upload/resolve", h.AdminResolve)
	mux.HandleFunc("GET /admin/delete", h.AdminDeleteConfirm)
	mux.HandleFunc("POST /admin/delete", h.AdminDeleteProcess)
	mux.HandleFunc("GET /semester/{num}", h.SemesterView)
	mux.HandleFunc("POST /semester/{num}", h.SemesterSubmit)
	mux.HandleFunc("POST /semester/{num}/download", h.SemesterDownload)
	mux.HandleFunc("GET /download", h.DownloadSingle)
	mux.Handle("GET /static/", http.StripPrefix(RouteStaticPrefix, http.FileServer(http.Dir(h.staticPath))))
}

// === админская часть ===

type loginData struct {
	Failed bool
}

func (h *Handler) AdminLoginForm(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, TemplateLogin, loginData{})
}

func (h *Handler) AdminLoginProcess(w http.ResponseWriter, r *http.Request) {
	if r.FormValue(FormParamPassword) != h.adminPassword {
		logrus.WithField("operation", OperationLogin).Warn(LogLoginRejected)
		h.renderTemplate(w, TemplateLogin, loginData{Failed: true})
		return
	}

	h.sessions.SetAdmin(w)
	logrus.WithField("operation", OperationLogin).Info(LogAdminLoggedIn)
	http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
}

type dashboardData struct {
	Note  string
	Files []domain.RecentFile
}

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	files, err := h.uc.RecentUploads(r.Context())
	if err != nil {
		h.handleError(w, err, RouteAdmin)
		return
	}

	h.renderTemplate(w, TemplateDashboard, dashboardData{
		Note:  h.messages.RetentionWindowNote,
		Files: files,
	})
}

type uploadFormData struct {
	Semesters []int
	Years     []string
	MaxSizeMB int64
}

func (h *Handler) AdminUploadForm(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, TemplateUpload, uploadFormData{
		Semesters: semesterNumbers(),
		Years:     domain.RecentBatchYears(h.now()),
		MaxSizeMB: domain.MaxArchiveSize / (1024 * 1024),
	})
}

type conflictData struct {
	Token      string
	ExistingID string
	Semester   string
	BatchYear  string
	Filename   string
}

func (h *Handler) AdminUploadProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	// ContentLength может быть -1 при chunked-передаче, поэтому размер
	// дополнительно проверяется после разбора формы и в usecase.
	if r.ContentLength > h.maxUploadSize {
		h.handleError(w, fmt.Errorf("request of %d bytes exceeds maximum %d: %w",
			r.ContentLength, h.maxUploadSize, domain.ErrValidation), RouteAdminUpload)
		return
	}

	file, header, err := r.FormFile(FormParamFile)
	if err != nil {
		h.handleError(w, fmt.Errorf("missing upload file: %w", domain.ErrValidation), RouteAdminUpload)
		return
	}
	defer file.Close()

	data, readErr := io.ReadAll(file)
	if readErr != nil {
		h.handleError(w, fmt.Errorf("failed to read upload: %w", readErr), RouteAdminUpload)
		return
	}

	semester := r.FormValue(FormParamSemester)
	batchYear := r.FormValue(FormParamBatchYear)
	if semester == "" || batchYear == "" {
		h.handleError(w, fmt.Errorf("missing semester or batch year: %w", domain.ErrValidation), RouteAdminUpload)
		return
	}

	outcome, uploadErr := h.uc.Upload(r.Context(), domain.UploadInput{
		Semester:  semester,
		BatchYear: batchYear,
		Filename:  header.Filename,
		Size:      header.Size,
		Data:      data,
	})
	if uploadErr != nil {
		h.handleError(w, uploadErr, RouteAdminUpload)
		return
	}

	if outcome.Status == domain.StatusConflictPending {
		h.renderTemplate(w, TemplateConflict, conflictData{
			Token:      outcome.PendingToken,
			ExistingID: outcome.ExistingID,
			Semester:   semester,
			BatchYear:  batchYear,
			Filename:   outcome.Filename,
		})
		return
	}

	http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
}

func (h *Handler) AdminResolve(w http.ResponseWriter, r *http.Request) {
	in := domain.ResolveInput{
		Token:      r.FormValue(FormParamPending),
		ExistingID: r.FormValue(FormParamExisting),
		Semester:   r.FormValue(FormParamSemester),
		BatchYear:  r.FormValue(FormParamBatchYear),
		Action:     r.FormValue(FormParamAction),
		Confirm1:   r.FormValue(FormParamConfirm1),
		Confirm2:   r.FormValue(FormParamConfirm2),
	}

	if _, err := h.uc.Resolve(r.Context(), in); err != nil {
		h.handleError(w, err, RouteAdminUpload)
		return
	}

	http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
}

type deleteData struct {
	FileID   string
	Filename string
}

func (h *Handler) AdminDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get(QueryParamFile)
	if fileID == "" {
		http.Error(w, h.messages.InvalidFileParam, http.StatusBadRequest)
		return
	}

	filename, err := h.uc.ArchiveName(r.Context(), fileID)
	if err != nil {
		// страница подтверждения показывается и без имени; само удаление
		// всё равно перепроверит файл по свежим метаданным.
		logrus.Warnf("Failed to fetch name for %s: %v", fileID, err)
		filename = "Unknown File"
	}

	h.renderTemplate(w, TemplateDelete, deleteData{FileID: fileID, Filename: filename})
}

func (h *Handler) AdminDeleteProcess(w http.ResponseWriter, r *http.Request) {
	fileID := r.FormValue(FormParamFile)
	if fileID == "" {
		http.Error(w, h.messages.InvalidFileParam, http.StatusBadRequest)
		return
	}

	err := h.uc.Delete(r.Context(), fileID,
		r.FormValue(FormParamConfirmation),
		r.FormValue(FormParamPassword))
	if err != nil {
		h.handleError(w, err, RouteAdmin)
		return
	}

	http.Redirect(w, r, RouteAdmin, http.StatusSeeOther)
}

// === публичная часть ===

type indexData struct {
	Semesters []int
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderTemplate(w, TemplateIndex, indexData{Semesters: semesterNumbers()})
}

type semesterData struct {
	Num      int
	Semester string
	Files    []domain.RemoteFile
}

func (h *Handler) semesterFromPath(r *http.Request) (int, string, error) {
	num, err := strconv.Atoi(r.PathValue("num"))
	if err != nil || num < 1 || num > domain.SemesterCount {
		return 0, "", fmt.Errorf("no such semester: %w", domain.ErrNotFound)
	}
	return num, domain.SemesterName(num), nil
}

func (h *Handler) SemesterView(w http.ResponseWriter, r *http.Request) {
	num, semester, err := h.semesterFromPath(r)
	if err != nil {
		http.Error(w, h.messages.SemesterNotFound, http.StatusNotFound)
		return
	}

	files, listErr := h.uc.ListSemester(r.Context(), semester)
	if listErr != nil {
		h.handleError(w, listErr, RouteIndex)
		return
	}

	h.renderTemplate(w, TemplateSemester, semesterData{
		Num:      num,
		Semester: semester,
		Files:    files,
	})
}

func (h *Handler) SemesterSubmit(w http.ResponseWriter, r *http.Request) {
	num, _, err := h.semesterFromPath(r)
	if err != nil {
		http.Error(w, h.messages.SemesterNotFound, http.StatusNotFound)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/semester/%d/download", num), http.StatusSeeOther)
}

func (h *Handler) SemesterDownload(w http.ResponseWriter, r *http.Request) {
	num, semester, err := h.semesterFromPath(r)
	if err != nil {
		http.Error(w, h.messages.SemesterNotFound, http.StatusNotFound)
		return
	}

	if parseErr := r.ParseForm(); parseErr != nil {
		h.handleError(w, fmt.Errorf("bad download form: %w", domain.ErrValidation), fmt.Sprintf("/semester/%d", num))
		return
	}

	var fileIDs []string
	switch r.FormValue(FormParamAction) {
	case ActionSelected:
		fileIDs = r.Form[FormParamSelected]
		if len(fileIDs) == 0 {
			h.handleError(w, fmt.Errorf("no files selected: %w", domain.ErrValidation), fmt.Sprintf("/semester/%d", num))
			return
		}
	case ActionAll:
		// пустой список — собрать все файлы семестра.
	default:
		h.handleError(w, fmt.Errorf("invalid download action: %w", domain.ErrValidation), fmt.Sprintf("/semester/%d", num))
		return
	}

	// существование семестра проверяется до записи заголовков: после
	// начала стриминга корректный ответ об ошибке уже не отдать.
	if _, listErr := h.uc.ListSemester(r.Context(), semester); listErr != nil {
		h.handleError(w, listErr, RouteIndex)
		return
	}

	w.Header().Set("Content-Type", domain.MIMEZip)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=\"semester_%d_files.zip\"", num))

	if bundleErr := h.uc.BundleSemester(r.Context(), w, semester, fileIDs); bundleErr != nil {
		logrus.Errorf("Bundle download for %s failed: %v", semester, bundleErr)
	}
}

func (h *Handler) DownloadSingle(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get(QueryParamFile)
	if fileID == "" {
		http.Error(w, h.messages.InvalidFileParam, http.StatusBadRequest)
		return
	}

	name, data, err := h.uc.DownloadArchive(r.Context(), fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// неизвестный id трактуется как некорректный параметр
			// запроса, так же как и его отсутствие.
			err = fmt.Errorf("%s: %w", h.messages.InvalidFileParam, domain.ErrValidation)
		}
		h.handleError(w, err, RouteIndex)
		return
	}

	w.Header().Set("Content-Type", domain.MIMEZip)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", name))
	if _, writeErr := w.Write(data); writeErr != nil {
		logrus.Warnf("Failed to write download response: %v", writeErr)
	}
}

// === служебное ===

func semesterNumbers() []int {
	nums := make([]int, 0, domain.SemesterCount)
	for i := 1; i <= domain.SemesterCount; i++ {
		nums = append(nums, i)
	}
	return nums
}

type errorType int

const (
	errorTypeValidation errorType = iota
	errorTypeNotFound
	errorTypeRetention
	errorTypeBackend
	errorTypeInternal
)

// getErrorType сопоставляет ошибки таксономии с HTTP-кодами;
// единственная точка преобразования ошибок в ответы.
func (h *Handler) getErrorType(err error) errorType {
	switch {
	case errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrCorruptArchive):
		return errorTypeValidation
	case errors.Is(err, domain.ErrNotFound):
		return errorTypeNotFound
	case errors.Is(err, domain.ErrRetentionExpired):
		return errorTypeRetention
	case errors.Is(err, domain.ErrUpload) || errors.Is(err, domain.ErrBackend):
		return errorTypeBackend
	default:
		return errorTypeInternal
	}
}

type messageData struct {
	Title string
	Text  string
	Back  string
}

func (h *Handler) handleError(w http.ResponseWriter, err error, back string) {
	var httpStatus int
	var text string

	switch h.getErrorType(err) {
	case errorTypeValidation:
		httpStatus = http.StatusBadRequest
		text = err.Error()
	case errorTypeNotFound:
		httpStatus = http.StatusNotFound
		text = err.Error()
	case errorTypeRetention:
		httpStatus = http.StatusForbidden
		text = h.messages.RetentionExpired
	case errorTypeBackend:
		// текст ошибки бэкенда отдаётся пользователю как есть,
		// повторов нет — пользователь отправляет форму заново сам.
		httpStatus = http.StatusBadGateway
		text = err.Error()
	case errorTypeInternal:
		httpStatus = http.StatusInternalServerError
		text = h.messages.InternalError
	}

	logrus.Errorf("HTTP %d Error: %+v", httpStatus, err)

	w.WriteHeader(httpStatus)
	h.renderTemplate(w, TemplateMessage, messageData{
		Title: "Error",
		Text:  text,
		Back:  back,
	})
}

func (h *Handler) renderTemplate(w http.ResponseWriter, file string, data any) {
	tmpl, parseErr := template.ParseFiles(filepath.Join(h.staticPath, file))
	if parseErr != nil {
		logrus.Infoln(parseErr)
		http.Error(w, h.messages.TemplateError, http.StatusInternalServerError)
		return
	}

	if executeErr := tmpl.Execute(w, data); executeErr != nil {
		logrus.Infoln(executeErr)
		http.Error(w, h.messages.RenderError, http.StatusInternalServerError)
	}
}
