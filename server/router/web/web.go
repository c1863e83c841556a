// Package web serves the HTML surface: login, the prompt gallery, and the
// submission confirmation. Handlers translate workflow errors into inline
// messages on the active page; nothing here is allowed to crash a request.
package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	werrors "github.com/promptjam/promptjam/internal/errors"
	"github.com/promptjam/promptjam/server/session"
	"github.com/promptjam/promptjam/server/workflow"
)

// sessionCookie names the cookie carrying the signed session token.
const sessionCookie = "promptjam_session"

// Handler wires the workflow service to the HTML routes.
type Handler struct {
	workflow *workflow.Service
	tokens   *session.TokenManager
	secure   bool
}

// NewHandler creates the web handler. secure controls the cookie Secure flag.
func NewHandler(wf *workflow.Service, tokens *session.TokenManager, secure bool) *Handler {
	return &Handler{workflow: wf, tokens: tokens, secure: secure}
}

// Register attaches the routes. loginLimiter, when non-nil, guards the login
// POST against brute-forcing the team list.
func (h *Handler) Register(e *echo.Echo, loginLimiter echo.MiddlewareFunc) {
	e.GET("/", h.loginPage)
	if loginLimiter != nil {
		e.POST("/", h.login, loginLimiter)
	} else {
		e.POST("/", h.login)
	}
	e.GET("/index", h.gallery)
	e.POST("/index", h.generate)
	e.POST("/submit", h.submit)
}

type loginData struct {
	Error string
}

type galleryData struct {
	Username string
	Attempts int
	Prompts  []string
	Images   []string
	Error    string
}

func (h *Handler) loginPage(c echo.Context) error {
	return c.Render(http.StatusOK, "login.html", loginData{})
}

func (h *Handler) login(c echo.Context) error {
	sess, err := h.workflow.Authenticate(c.Request().Context(), c.FormValue("username"))
	if err != nil {
		return c.Render(http.StatusOK, "login.html", loginData{Error: errDetail(err)})
	}

	token, err := h.tokens.Issue(sess)
	if err != nil {
		return c.Render(http.StatusOK, "login.html", loginData{Error: "could not establish a session, try again"})
	}

	c.SetCookie(h.cookie(token, 0))
	return c.Redirect(http.StatusSeeOther, "/index")
}

func (h *Handler) gallery(c echo.Context) error {
	sess, ok := h.activeSession(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.Render(http.StatusOK, "index.html", galleryFrom(sess, ""))
}

func (h *Handler) generate(c echo.Context) error {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	_, err := h.workflow.Generate(c.Request().Context(), sessionID, c.FormValue("prompt"))
	if werrors.IsCode(err, werrors.CodeSessionNotFound) {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	sess, snapErr := h.workflow.Snapshot(c.Request().Context(), sessionID)
	if snapErr != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return c.Render(http.StatusOK, "index.html", galleryFrom(sess, errDetail(err)))
}

func (h *Handler) submit(c echo.Context) error {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	index := -1
	if raw := c.FormValue("selected_image"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			index = parsed
		}
	}

	team, err := h.workflow.SubmitSelection(c.Request().Context(), sessionID, index)
	if err != nil {
		if werrors.IsCode(err, werrors.CodeSessionNotFound) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		sess, snapErr := h.workflow.Snapshot(c.Request().Context(), sessionID)
		if snapErr != nil {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return c.Render(http.StatusOK, "index.html", galleryFrom(sess, errDetail(err)))
	}

	c.SetCookie(h.cookie("", -1))
	return c.Render(http.StatusOK, "submitted.html", map[string]string{"Username": team})
}

// sessionID extracts and verifies the session token from the request cookie.
func (h *Handler) sessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, err := h.tokens.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id, true
}

// activeSession resolves the cookie to a live session snapshot.
func (h *Handler) activeSession(c echo.Context) (*session.Session, bool) {
	id, ok := h.sessionID(c)
	if !ok {
		return nil, false
	}
	sess, err := h.workflow.Snapshot(c.Request().Context(), id)
	if err != nil {
		return nil, false
	}
	return sess, true
}

func (h *Handler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func galleryFrom(sess *session.Session, errMsg string) galleryData {
	return galleryData{
		Username: sess.Team,
		Attempts: sess.AttemptsRemaining,
		Prompts:  sess.Prompts,
		Images:   sess.Images,
		Error:    errMsg,
	}
}

// errDetail renders a workflow error for the page; nil errors produce "".
func errDetail(err error) string {
	if err == nil {
		return ""
	}
	var wfErr *werrors.WorkflowError
	if errors.As(err, &wfErr) {
		return wfErr.Detail()
	}
	return err.Error()
}
