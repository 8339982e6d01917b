package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"taskdesk/internal/service"
)

type loginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

type registerForm struct {
	Username        string `form:"username"`
	Email           string `form:"email"`
	FullName        string `form:"full_name"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (f registerForm) values() map[string]string {
	return map[string]string{
		"username":  f.Username,
		"email":     f.Email,
		"full_name": f.FullName,
	}
}

func (s *Server) loginForm(c echo.Context) error {
	if currentUser(c) != nil {
		return redirect(c, "/dashboard")
	}
	return s.render(c, http.StatusOK, "login.html", &page{Title: "Log in"})
}

func (s *Server) login(c echo.Context) error {
	var form loginForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	p := &page{Title: "Log in", Form: map[string]string{"username": form.Username}}

	if strings.TrimSpace(form.Username) == "" || form.Password == "" {
		p.Flashes = []Flash{{Kind: FlashError, Message: "Username and password are required."}}
		return s.render(c, http.StatusUnprocessableEntity, "login.html", p)
	}

	account, err := s.svc.Auth.Authenticate(c.Request().Context(), form.Username, form.Password)
	if err != nil {
		flashes, err := formError(err)
		if err != nil {
			return err
		}
		p.Flashes = flashes
		return s.render(c, http.StatusUnprocessableEntity, "login.html", p)
	}

	if err := startSession(c, s.store, account); err != nil {
		return err
	}
	addFlash(c, FlashSuccess, fmt.Sprintf("Welcome, %s!", account.Username))
	return redirect(c, "/dashboard")
}

func (s *Server) registerForm(c echo.Context) error {
	if currentUser(c) != nil {
		return redirect(c, "/dashboard")
	}
	return s.render(c, http.StatusOK, "register.html", &page{Title: "Register"})
}

func (s *Server) register(c echo.Context) error {
	var form registerForm
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	p := &page{Title: "Register", Form: form.values()}

	switch {
	case strings.TrimSpace(form.Username) == "" || strings.TrimSpace(form.Email) == "" || form.Password == "":
		p.Flashes = []Flash{{Kind: FlashError, Message: "Username, email and password are required."}}
	case form.Password != form.ConfirmPassword:
		p.Flashes = []Flash{{Kind: FlashError, Message: "Passwords do not match."}}
	}
	if len(p.Flashes) > 0 {
		return s.render(c, http.StatusUnprocessableEntity, "register.html", p)
	}

	in := service.RegisterInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	}
	if name := strings.TrimSpace(form.FullName); name != "" {
		in.FullName = &name
	}
	if _, err := s.svc.Auth.Register(c.Request().Context(), in); err != nil {
		flashes, err := formError(err)
		if err != nil {
			return err
		}
		p.Flashes = flashes
		return s.render(c, http.StatusUnprocessableEntity, "register.html", p)
	}

	addFlash(c, FlashSuccess, "Account created. You can log in now.")
	return redirect(c, "/login")
}

// logout drops the session and starts an anonymous one carrying the goodbye flash.
func (s *Server) logout(c echo.Context) error {
	if err := endSession(c); err != nil {
		return err
	}
	if _, err := freshSession(c, s.store); err != nil {
		return err
	}
	addFlash(c, FlashInfo, "You have been logged out.")
	return redirect(c, "/")
}
