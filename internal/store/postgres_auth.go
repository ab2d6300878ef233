package store

import (
	"context"

	"github.com/courtesyinspect/courtesyinspect/pkg/apperr"
	"github.com/courtesyinspect/courtesyinspect/pkg/models"
)

// ── Shops ───────────────────────────────────────────────────

const shopCols = `id, name, timezone, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(address, ''), created_at, updated_at`

func scanShop(row interface{ Scan(...any) error }) (*models.Shop, error) {
	var s models.Shop
	err := row.Scan(&s.ID, &s.Name, &s.Timezone, &s.Phone, &s.Email, &s.Address, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Postgres) GetShop(ctx context.Context, id string) (*models.Shop, error) {
	row := p.q.QueryRow(ctx, `SELECT `+shopCols+` FROM shops WHERE id = $1`, id)
	s, err := scanShop(row)
	if err != nil {
		return nil, translate(err, "shop not found")
	}
	return s, nil
}

func (p *Postgres) CreateShop(ctx context.Context, shop *models.Shop) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO shops (id, name, timezone, phone, email, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		shop.ID, shop.Name, shop.Timezone, nullStr(shop.Phone), nullStr(shop.Email), nullStr(shop.Address),
		utc(shop.CreatedAt), utc(shop.UpdatedAt))
	return translate(err, "")
}

// ── Users ───────────────────────────────────────────────────

const userCols = `id, shop_id, email, password_hash, full_name, role, is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.ShopID, &u.Email, &u.PasswordHash, &u.FullName, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) GetUser(ctx context.Context, id string) (*models.User, error) {
	row := p.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return u, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := p.q.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, translate(err, "user not found")
	}
	return u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO users (id, shop_id, email, password_hash, full_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.ShopID, user.Email, user.PasswordHash, user.FullName, user.Role, user.IsActive,
		utc(user.CreatedAt), utc(user.UpdatedAt))
	return translate(err, "")
}

func (p *Postgres) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := p.q.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash)
	if err != nil {
		return translate(err, "")
	}
	if tag.RowsAffected() == 0 {
		return apperr.E(apperr.NotFound, "user not found")
	}
	return nil
}

// ── Sessions ────────────────────────────────────────────────

func (p *Postgres) CreateSession(ctx context.Context, session *models.Session) error {
	_, err := p.q.Exec(ctx, `
		INSERT INTO user_sessions (id, user_id, refresh_token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.UserID, session.RefreshToken, utc(session.ExpiresAt), utc(session.CreatedAt))
	return translate(err, "")
}

func (p *Postgres) GetSessionByToken(ctx context.Context, userID, token string) (*models.Session, error) {
	var s models.Session
	err := p.q.QueryRow(ctx, `
		SELECT id, user_id, refresh_token, expires_at, created_at
		FROM user_sessions
		WHERE user_id = $1 AND refresh_token = $2`,
		userID, token).Scan(&s.ID, &s.UserID, &s.RefreshToken, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		return nil, translate(err, "session not found")
	}
	return &s, nil
}

func (p *Postgres) DeleteSession(ctx context.Context, id string) error {
	_, err := p.q.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id)
	return translate(err, "")
}

func (p *Postgres) DeleteSessionByToken(ctx context.Context, token string) error {
	_, err := p.q.Exec(ctx, `DELETE FROM user_sessions WHERE refresh_token = $1`, token)
	return translate(err, "")
}

func (p *Postgres) DeleteUserSessions(ctx context.Context, userID string) error {
	_, err := p.q.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID)
	return translate(err, "")
}
