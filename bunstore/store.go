// Package bunstore implements authkit.IdentityStore on top of a bun.DB.
// It works with any dialect bun supports; tests and small deployments can use
// the bundled sqlite driver.
package bunstore

import (
	"context"
	"database/sql"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	authkit "github.com/jandrikus/go-authkit"
)

// Store is a bun-backed IdentityStore. Uniqueness on normalized username and
// email is enforced by database unique indexes; violations surface as the
// typed conflict errors the engine expects.
type Store struct {
	db *bun.DB
}

var _ authkit.IdentityStore = (*Store)(nil)

// New wraps db in a Store. The m2m join model is registered here so role
// relations resolve.
func New(db *bun.DB) *Store {
	db.RegisterModel((*authkit.UserRole)(nil))
	return &Store{db: db}
}

// ResetSchema creates the users, roles and user_roles tables plus the
// case-insensitive unique indexes. Intended for tests and fresh installs;
// production schemas are usually migrated externally.
func (s *Store) ResetSchema(ctx context.Context) error {
	models := []any{
		(*authkit.User)(nil),
		(*authkit.RoleRecord)(nil),
		(*authkit.UserRole)(nil),
	}

	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS users_username_lower_idx ON users (lower(username)) WHERE username IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (lower(email)) WHERE email IS NOT NULL`,
	}

	for _, ddl := range indexes {
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}

	return nil
}

// FindByUsername implements authkit.IdentityStore. The lookup is
// case-insensitive; a miss returns (nil, nil).
func (s *Store) FindByUsername(ctx context.Context, username string) (*authkit.User, error) {
	if username == "" {
		return nil, nil
	}
	return s.findOne(ctx, "lower(username) = lower(?)", username)
}

// FindByEmail implements authkit.IdentityStore. The lookup is
// case-insensitive; a miss returns (nil, nil).
func (s *Store) FindByEmail(ctx context.Context, email string) (*authkit.User, error) {
	if email == "" {
		return nil, nil
	}
	return s.findOne(ctx, "lower(email) = lower(?)", email)
}

// FindByID implements authkit.IdentityStore. A miss returns (nil, nil).
func (s *Store) FindByID(ctx context.Context, id int64) (*authkit.User, error) {
	return s.findOne(ctx, "usr.id = ?", id)
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (*authkit.User, error) {
	user := new(authkit.User)

	err := s.db.NewSelect().Model(user).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "identity lookup failed")
	}

	return user, nil
}

// Create implements authkit.IdentityStore. A violated unique index is mapped
// to ErrUsernameTaken or ErrEmailTaken so "check then create" races surface
// as typed conflicts instead of duplicates.
func (s *Store) Create(ctx context.Context, user *authkit.User) (*authkit.User, error) {
	if _, err := s.db.NewInsert().Model(user).Exec(ctx); err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create identity")
	}

	return user, nil
}

// Save implements authkit.IdentityStore.
func (s *Store) Save(ctx context.Context, user *authkit.User) error {
	if _, err := s.db.NewUpdate().Model(user).WherePK().Exec(ctx); err != nil {
		if conflictErr := mapUniqueViolation(err); conflictErr != nil {
			return conflictErr
		}
		return errors.Wrap(err, errors.CategoryInternal, "failed to save identity")
	}
	return nil
}

// Delete implements authkit.IdentityStore. Membership rows go first so the
// join table never references a missing user.
func (s *Store) Delete(ctx context.Context, user *authkit.User) error {
	if _, err := s.db.NewDelete().Model((*authkit.UserRole)(nil)).Where("user_id = ?", user.ID).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete role memberships")
	}
	if _, err := s.db.NewDelete().Model(user).WherePK().Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete identity")
	}
	return nil
}

// Commit implements authkit.IdentityStore. Every mutation on this store
// executes immediately, so there is nothing to flush.
func (s *Store) Commit(context.Context) error {
	return nil
}

// RolesOf implements authkit.IdentityStore.
func (s *Store) RolesOf(ctx context.Context, user *authkit.User) ([]string, error) {
	var names []string

	err := s.db.NewSelect().
		Model((*authkit.RoleRecord)(nil)).
		Column("rol.name").
		Join("JOIN user_roles AS usrrol ON usrrol.role_id = rol.id").
		Where("usrrol.user_id = ?", user.ID).
		Scan(ctx, &names)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load roles")
	}

	return names, nil
}

// AddRole implements authkit.IdentityStore: the role row is created on first
// reference, membership insertion is idempotent.
func (s *Store) AddRole(ctx context.Context, user *authkit.User, name string) error {
	role := &authkit.RoleRecord{Name: name}

	if _, err := s.db.NewInsert().Model(role).
		On("CONFLICT (name) DO UPDATE SET name = EXCLUDED.name").
		Returning("id").
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to upsert role")
	}

	membership := &authkit.UserRole{UserID: user.ID, RoleID: role.ID}
	if _, err := s.db.NewInsert().Model(membership).
		On("CONFLICT DO NOTHING").
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to add role membership")
	}

	return nil
}

// mapUniqueViolation translates driver-level unique constraint failures into
// the engine's conflict errors. Matching on the message keeps this portable
// across sqlite and postgres drivers.
func mapUniqueViolation(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate key") {
		return nil
	}

	if strings.Contains(msg, "email") {
		return authkit.ErrEmailTaken
	}
	if strings.Contains(msg, "username") {
		return authkit.ErrUsernameTaken
	}

	return errors.Wrap(err, errors.CategoryConflict, "identity uniqueness violation")
}
