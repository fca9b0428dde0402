package timesheet

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/Tiliavir/trivial-timesheet/internal/model"
	"github.com/Tiliavir/trivial-timesheet/internal/storage"
)

// DefaultActivity is created the first time activities are listed.
var DefaultActivity = model.Activity{ID: "meeting", Label: "Meeting", Color: "#10B981"}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

func requireAdmin(actor model.AppUser) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return nil
}

// Activities lists activities by label, seeding DefaultActivity into an
// empty store.
func (s *Service) Activities(ctx context.Context) ([]model.Activity, error) {
	activities, err := s.store.ListActivities(ctx)
	if err != nil {
		return nil, err
	}
	if len(activities) > 0 {
		return activities, nil
	}
	if err := s.store.PutActivity(ctx, DefaultActivity); err != nil {
		return nil, err
	}
	s.logger.Info("seeded default activity", "id", DefaultActivity.ID)
	return []model.Activity{DefaultActivity}, nil
}

// CreateActivity adds an activity whose id is derived from label.
func (s *Service) CreateActivity(ctx context.Context, actor model.AppUser, label, color string) (model.Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Activity{}, err
	}
	a := model.Activity{ID: model.ActivityID(label), Label: strings.TrimSpace(label), Color: color}
	if err := validateActivity(a); err != nil {
		return model.Activity{}, err
	}
	existing, err := s.store.ListActivities(ctx)
	if err != nil {
		return model.Activity{}, err
	}
	for _, e := range existing {
		if e.ID == a.ID {
			return model.Activity{}, fmt.Errorf("%w: %s", ErrActivityExists, a.ID)
		}
	}
	if err := s.store.PutActivity(ctx, a); err != nil {
		return model.Activity{}, err
	}
	s.logger.Info("activity created", "id", a.ID, "by", actor.ID)
	return a, nil
}

// UpdateActivity changes the label and color of an activity. Its id stays,
// so existing entries keep pointing at it.
func (s *Service) UpdateActivity(ctx context.Context, actor model.AppUser, id, label, color string) (model.Activity, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Activity{}, err
	}
	if err := s.checkActivity(ctx, id); err != nil {
		return model.Activity{}, err
	}
	a := model.Activity{ID: id, Label: strings.TrimSpace(label), Color: color}
	if err := validateActivity(a); err != nil {
		return model.Activity{}, err
	}
	if err := s.store.PutActivity(ctx, a); err != nil {
		return model.Activity{}, err
	}
	return a, nil
}

// DeleteActivity removes an activity. Entries referencing it are kept and
// later render with the raw id.
func (s *Service) DeleteActivity(ctx context.Context, actor model.AppUser, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.store.DeleteActivity(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownActivity, id)
		}
		return err
	}
	s.logger.Info("activity deleted", "id", id, "by", actor.ID)
	return nil
}

func validateActivity(a model.Activity) error {
	if a.Label == "" || a.ID == "" {
		return fmt.Errorf("activity label must not be empty")
	}
	if !hexColor.MatchString(a.Color) {
		return fmt.Errorf("invalid color %q: expected #RRGGBB", a.Color)
	}
	return nil
}

// Users lists all registered users.
func (s *Service) Users(ctx context.Context) ([]model.AppUser, error) {
	return s.store.ListUsers(ctx)
}

// Actor resolves id to a registered user.
func (s *Service) Actor(ctx context.Context, id string) (model.AppUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return model.AppUser{}, err
	}
	for _, u := range users {
		if u.ID == id || strings.EqualFold(u.Email, id) {
			return u, nil
		}
	}
	return model.AppUser{}, fmt.Errorf("%w: %s", ErrUnknownUser, id)
}

// UserInput describes a user to register. An empty ID is generated.
type UserInput struct {
	ID          string
	Email       string
	DisplayName string
	Role        model.Role
}

// AddUser registers a user. The very first user becomes an admin and needs
// no actor; after that only admins may add users.
func (s *Service) AddUser(ctx context.Context, actor model.AppUser, in UserInput) (model.AppUser, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return model.AppUser{}, err
	}
	bootstrap := len(users) == 0
	if !bootstrap {
		if err := requireAdmin(actor); err != nil {
			return model.AppUser{}, err
		}
	}

	addr, err := mail.ParseAddress(in.Email)
	if err != nil {
		return model.AppUser{}, fmt.Errorf("invalid email %q: %w", in.Email, err)
	}
	role := in.Role
	switch {
	case bootstrap:
		role = model.RoleAdmin
	case role == "":
		role = model.RoleUser
	case role != model.RoleAdmin && role != model.RoleUser:
		return model.AppUser{}, fmt.Errorf("invalid role %q", role)
	}
	id := in.ID
	if id == "" {
		id = s.ids.New()
	}
	for _, u := range users {
		if u.ID == id || strings.EqualFold(u.Email, addr.Address) {
			return model.AppUser{}, fmt.Errorf("user %s already exists", addr.Address)
		}
	}
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		name = addr.Address
	}

	u := model.AppUser{
		ID:          id,
		Email:       addr.Address,
		DisplayName: name,
		Role:        role,
		CreatedAt:   s.stamp(),
		CreatedBy:   actor.ID,
	}
	if err := s.store.PutUser(ctx, u); err != nil {
		return model.AppUser{}, err
	}
	s.logger.Info("user added", "id", u.ID, "role", u.Role, "bootstrap", bootstrap)
	return u, nil
}

// Settings returns the application settings.
func (s *Service) Settings(ctx context.Context) (model.Settings, error) {
	return s.store.GetSettings(ctx)
}

// UpdateSettings toggles whether users may edit their own entries.
func (s *Service) UpdateSettings(ctx context.Context, actor model.AppUser, allowUserEdits bool) (model.Settings, error) {
	if err := requireAdmin(actor); err != nil {
		return model.Settings{}, err
	}
	st := model.Settings{AllowUserEdits: allowUserEdits, UpdatedAt: s.stamp(), UpdatedBy: actor.ID}
	if err := s.store.PutSettings(ctx, st); err != nil {
		return model.Settings{}, err
	}
	s.logger.Info("settings updated", "allowUserEdits", allowUserEdits, "by", actor.ID)
	return st, nil
}
