package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ghaggin/fluidbalance/internal/api"
	"github.com/ghaggin/fluidbalance/internal/auth"
	"github.com/ghaggin/fluidbalance/internal/model"
	"github.com/ghaggin/fluidbalance/internal/notify"
	"go.uber.org/zap"
)

type credentialsForm struct {
	Username string
	Email    string
}

func (h *handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login.html", "Iniciar sesión", credentialsForm{})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	creds := model.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	if creds.Username == "" || creds.Password == "" {
		h.flash.Flash(r.Context(), notify.LevelError, "Usuario y contraseña son obligatorios.")
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", "Iniciar sesión", credentialsForm{Username: creds.Username})
		return
	}

	tok, err := h.session.Login(r.Context(), creds)
	if err != nil {
		h.flashError(r, err, "Usuario o contraseña incorrectos.")
		h.render(w, r, http.StatusUnauthorized, "login.html", "Iniciar sesión", credentialsForm{Username: creds.Username})
		return
	}
	if err := h.session.HandleLogin(r.Context(), tok); err != nil {
		h.log.Warn("login returned an unusable token", zap.Error(err))
		h.flash.Flash(r.Context(), notify.LevelError, "Tu sesión expiró, vuelve a iniciar sesión.")
		redirect(w, r, auth.RouteLogin)
		return
	}

	redirect(w, r, auth.RouteDashboard)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.session.Logout(r.Context())
	redirect(w, r, auth.RouteLogin)
}

func (h *handlers) registerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", "Registrar usuario", credentialsForm{})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := credentialsForm{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
	}
	password := r.PostForm.Get("password")

	rejected := func(msg string) {
		h.flash.Flash(r.Context(), notify.LevelError, msg)
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", "Registrar usuario", form)
	}
	if form.Username == "" || form.Email == "" || password == "" {
		rejected("Completa todos los campos.")
		return
	}
	if !auth.ValidEmail(form.Email) {
		rejected("Ingresa un correo válido.")
		return
	}

	encrypted, err := h.encrypt(r, password)
	if err != nil {
		h.flashError(r, err, "No pudimos proteger la contraseña.")
		h.render(w, r, http.StatusBadGateway, "register.html", "Registrar usuario", form)
		return
	}

	err = h.svc.Users.Save(r.Context(), model.User{
		Username: form.Username,
		Password: encrypted[0],
		Email:    form.Email,
	})
	if err != nil {
		h.flashError(r, err, "Error desconocido al registrar usuario")
		h.render(w, r, http.StatusBadGateway, "register.html", "Registrar usuario", form)
		return
	}

	h.success(r, "Usuario registrado exitosamente")
	redirect(w, r, auth.RouteLogin)
}

func (h *handlers) recoverPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "recover-password.html", "Recuperar contraseña", credentialsForm{})
}

func (h *handlers) recover(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))

	err := h.auth.RecoverPassword(r.Context(), email)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		h.flash.Flash(r.Context(), notify.LevelError, "Ingresa un correo válido.")
		h.render(w, r, http.StatusUnprocessableEntity, "recover-password.html", "Recuperar contraseña", credentialsForm{Email: email})
		return
	case err != nil:
		h.flashError(r, err, "No pudimos procesar tu solicitud.")
		h.render(w, r, http.StatusBadGateway, "recover-password.html", "Recuperar contraseña", credentialsForm{Email: email})
		return
	}

	h.success(r, "Revisa tu correo se restableció la contraseña.")
	redirect(w, r, "/recover-password")
}

func (h *handlers) updatePasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "update-password.html", "Cambiar contraseña", struct{}{})
}

// updatePassword changes the password and then ends the session, so the
// clinician signs in again with the new one.
func (h *handlers) updatePassword(w http.ResponseWriter, r *http.Request) {
	const back = "/dashboard/update-password"

	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	current := r.PostForm.Get("currentPassword")
	next := r.PostForm.Get("newPassword")

	if err := api.ValidatePasswordChange(current, next); err != nil {
		h.failure(r, err, "No pudimos actualizar la contraseña.")
		redirect(w, r, back)
		return
	}

	userID, ok := h.session.UserID()
	if !ok {
		h.flash.Flash(r.Context(), notify.LevelError, "Tu sesión expiró, vuelve a iniciar sesión.")
		h.session.HandleLogout(r.Context())
		redirect(w, r, auth.RouteLogin)
		return
	}

	encrypted, err := h.encrypt(r, current, next)
	if err != nil {
		h.failure(r, err, "No pudimos proteger la contraseña.")
		redirect(w, r, back)
		return
	}

	err = h.svc.Users.UpdatePassword(r.Context(), userID, model.PasswordUpdate{
		CurrentPassword: encrypted[0],
		NewPassword:     encrypted[1],
	})
	if err != nil {
		h.failure(r, err, "No pudimos actualizar la contraseña.")
		redirect(w, r, back)
		return
	}

	h.session.HandleLogout(r.Context())
	h.success(r, "Contraseña actualizada exitosamente. Inicia sesión nuevamente.")
	redirect(w, r, auth.RouteLogin)
}

// encrypt protects each plain-text password with the backend's public key.
func (h *handlers) encrypt(r *http.Request, plain ...string) ([]string, error) {
	key, err := h.auth.PublicKey(r.Context())
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(plain))
	for _, p := range plain {
		enc, err := auth.EncryptPassword(key, p)
		if err != nil {
			return nil, err
		}
		out = append(out, enc)
	}
	return out, nil
}
