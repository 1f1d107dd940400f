package server

import (
	"net/http"
	"strings"
)

// AdminGate перехватывает все запросы под /admin, кроме страницы логина
// и статики, и без админского флага в сессии отправляет на логин.
func AdminGate(sessions *SessionStore, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasPrefix(path, RouteAdmin) &&
			!strings.HasPrefix(path, RouteAdminLogin) &&
			!strings.HasPrefix(path, RouteStaticPrefix) &&
			!sessions.IsAdmin(r) {
			http.Redirect(w, r, RouteAdminLogin, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
