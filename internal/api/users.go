package api

import (
	"context"
	"net/http"

	"github.com/ghaggin/fluidbalance/internal/model"
)

type Users struct {
	c *Client
}

// Save registers a clinician. The password must already be encrypted.
func (s *Users) Save(ctx context.Context, u model.User) error {
	return s.c.Do(ctx, http.MethodPost, "/api/users/save", nil, u, nil)
}

func (s *Users) UpdatePassword(ctx context.Context, userID int64, upd model.PasswordUpdate) error {
	return s.c.Do(ctx, http.MethodPatch, "/api/users/"+pathID(userID)+"/password", nil, upd, nil)
}
