package admin

import (
	"errors"
	"net/http"

	"github.com/reglanz/genba/internal/api"
	"github.com/reglanz/genba/internal/ratelimit"
	"github.com/reglanz/genba/internal/requestinfo"
)

type loginBody struct {
	Passcode string `json:"passcode" validate:"required"`
}

func (c *Component) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := c.LoginLimiter.Allow(r.Context(), requestinfo.ClientKey(r.Context())); err != nil {
		if errors.Is(err, ratelimit.ErrLimited) {
			api.Error(w, r, err)
			return
		}
		c.log.Warnw("login throttle unavailable", "err", err)
	}

	var in loginBody
	if err := api.Decode(r, &in); err != nil {
		api.Error(w, r, err)
		return
	}
	if err := c.Sessions.CheckPasscode(in.Passcode); err != nil {
		c.log.Infow("admin login rejected", "ip", requestinfo.ClientKey(r.Context()))
		api.Error(w, r, err)
		return
	}
	if err := c.Sessions.Login(w, r); err != nil {
		api.Error(w, r, err)
		return
	}
	api.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (c *Component) handleLogout(w http.ResponseWriter, r *http.Request) {
	c.Sessions.Logout(w, r)
	api.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
