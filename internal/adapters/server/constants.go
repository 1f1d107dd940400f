package server

const (
	RouteIndex            = "/"
	RouteAdmin            = "/admin"
	RouteAdminLogin       = "/admin/login"
	RouteAdminUpload      = "/admin/upload"
	RouteAdminResolve     = "/admin/upload/resolve"
	RouteAdminDelete      = "/admin/delete"
	RouteStaticPrefix     = "/static/"
	OperationLogin        = "login"
	LogAdminLoggedIn      = "Admin logged in"
	LogLoginRejected      = "Login rejected"
	QueryParamFile        = "file"
	FormParamPassword     = "password"
	FormParamFile         = "file"
	FormParamSemester     = "semester"
	FormParamBatchYear    = "batch_year"
	FormParamPending      = "pending"
	FormParamExisting     = "existing"
	FormParamAction       = "action"
	FormParamConfirm1     = "confirm1"
	FormParamConfirm2     = "confirm2"
	FormParamConfirmation = "confirmation"
	FormParamSelected     = "selected"
	ActionSelected        = "selected"
	ActionAll             = "all"
	CookieSession         = "session_id"
	TemplateIndex         = "index.html"
	TemplateLogin         = "login.html"
	TemplateDashboard     = "dashboard.html"
	TemplateUpload        = "upload.html"
	TemplateConflict      = "conflict.html"
	TemplateDelete        = "delete.html"
	TemplateSemester      = "semester.html"
	TemplateMessage       = "message.html"
)
