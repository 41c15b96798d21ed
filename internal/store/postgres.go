package store

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fitChallengeAPI/internal/notification"
	"fitChallengeAPI/internal/types/challenge"
	"fitChallengeAPI/internal/types/post"
	"fitChallengeAPI/internal/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

type Postgres struct {
	db *pgxpool.Pool
}

// Connect opens a pool against dbURL and pings it.
func Connect(ctx context.Context, dbURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{db: pool}, nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

// Migrate applies the embedded schema. Every statement is IF NOT EXISTS.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Postgres) Close() {
	s.db.Close()
}

// ---------------------------------------------------------------------------
// Challenges
// ---------------------------------------------------------------------------

func (s *Postgres) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	query := `
	INSERT INTO challenges (id, title, description, num_days, measurement, goal, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.NumDays,
		c.Measurement,
		c.Goal,
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *Postgres) ListChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	query := `
	SELECT id, title, description, num_days, measurement, goal, created_at
	FROM challenges
	ORDER BY created_at, id
	`
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	return scanChallenges(rows)
}

func (s *Postgres) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `
	SELECT id, title, description, num_days, measurement, goal, created_at
	FROM challenges
	WHERE id = $1
	`
	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.NumDays,
		&c.Measurement,
		&c.Goal,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListChallengesForUser(ctx context.Context, userID uuid.UUID) ([]*challenge.Challenge, error) {
	query := `
	SELECT c.id, c.title, c.description, c.num_days, c.measurement, c.goal, c.created_at
	FROM challenges c
	WHERE c.id IN (SELECT challenge_id FROM user_challenges WHERE user_id = $1)
	ORDER BY c.created_at, c.id
	`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user challenges: %w", err)
	}
	defer rows.Close()

	return scanChallenges(rows)
}

func scanChallenges(rows pgx.Rows) ([]*challenge.Challenge, error) {
	challenges := []*challenge.Challenge{}
	for rows.Next() {
		var c challenge.Challenge
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.NumDays,
			&c.Measurement,
			&c.Goal,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		challenges = append(challenges, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return challenges, nil
}

// ---------------------------------------------------------------------------
// Ledgers
// ---------------------------------------------------------------------------

// lockPair serializes enrollment writes for one (user, challenge) pair
// until the transaction ends.
func lockPair(ctx context.Context, tx pgx.Tx, userID, challengeID uuid.UUID) error {
	key := userID.String() + ":" + challengeID.String()
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("failed to lock enrollment: %w", err)
	}
	return nil
}

func insertLedger(ctx context.Context, q interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}, l *challenge.UserChallenge) error {
	days, err := json.Marshal(l.Days)
	if err != nil {
		return fmt.Errorf("failed to encode days: %w", err)
	}

	query := `
	INSERT INTO user_challenges (id, user_id, challenge_id, days, joined_at, updated_at)
	VALUES ($1, $2, $3, $4::jsonb, $5, $6)
	`
	_, err = q.Exec(ctx, query, l.ID, l.UserID, l.ChallengeID, days, l.JoinedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert ledger: %w", err)
	}
	return nil
}

func (s *Postgres) InsertLedger(ctx context.Context, l *challenge.UserChallenge) error {
	return insertLedger(ctx, s.db, l)
}

func (s *Postgres) InsertLedgerIfAbsent(ctx context.Context, l *challenge.UserChallenge) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPair(ctx, tx, l.UserID, l.ChallengeID); err != nil {
		return err
	}

	var exists bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM user_challenges WHERE user_id = $1 AND challenge_id = $2)`,
		l.UserID, l.ChallengeID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing ledger: %w", err)
	}
	if exists {
		return ErrConflict
	}

	if err := insertLedger(ctx, tx, l); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) UpsertLedgerDays(ctx context.Context, l *challenge.UserChallenge) (*challenge.UserChallenge, error) {
	days, err := json.Marshal(l.Days)
	if err != nil {
		return nil, fmt.Errorf("failed to encode days: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := lockPair(ctx, tx, l.UserID, l.ChallengeID); err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, `
	UPDATE user_challenges
	SET days = $3::jsonb, updated_at = $4
	WHERE user_id = $1 AND challenge_id = $2
	`, l.UserID, l.ChallengeID, days, l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to overwrite ledger: %w", err)
	}

	if tag.RowsAffected() == 0 {
		if err := insertLedger(ctx, tx, l); err != nil {
			return nil, err
		}
	}

	stored, err := getLedger(ctx, tx, l.UserID, l.ChallengeID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return stored, nil
}

func (s *Postgres) GetLedger(ctx context.Context, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	return getLedger(ctx, s.db, userID, challengeID)
}

func getLedger(ctx context.Context, q interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}, userID, challengeID uuid.UUID) (*challenge.UserChallenge, error) {
	query := `
	SELECT id, user_id, challenge_id, days, joined_at, updated_at
	FROM user_challenges
	WHERE user_id = $1 AND challenge_id = $2
	ORDER BY joined_at, seq
	LIMIT 1
	`
	l := &challenge.UserChallenge{}
	var rawDays []byte
	err := q.QueryRow(ctx, query, userID, challengeID).Scan(
		&l.ID,
		&l.UserID,
		&l.ChallengeID,
		&rawDays,
		&l.JoinedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	if err := json.Unmarshal(rawDays, &l.Days); err != nil {
		return nil, fmt.Errorf("failed to decode days: %w", err)
	}
	if l.Days == nil {
		l.Days = challenge.Days{}
	}
	return l, nil
}

func (s *Postgres) SetDay(ctx context.Context, userID, challengeID uuid.UUID, date string, value float64, requireExisting bool) error {
	// jsonb_set only touches one key, so concurrent writes to different
	// dates of the same ledger do not overwrite each other.
	query := `
	UPDATE user_challenges
	SET days = jsonb_set(days, ARRAY[$3::text], to_jsonb($4::float8), true),
	    updated_at = NOW()
	WHERE id = (
		SELECT id FROM user_challenges
		WHERE user_id = $1 AND challenge_id = $2
		ORDER BY joined_at, seq
		LIMIT 1
	)
	AND (NOT $5::bool OR days ? $3::text)
	`
	tag, err := s.db.Exec(ctx, query, userID, challengeID, date, value, requireExisting)
	if err != nil {
		return fmt.Errorf("failed to update day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CountLedgers(ctx context.Context, userID, challengeID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM user_challenges WHERE user_id = $1 AND challenge_id = $2`,
		userID, challengeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count ledgers: %w", err)
	}
	return count, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

const userColumns = `id, clerk_id, first_name, last_name, email, password_hash, age, weight, height, gender, avatar, created_at, updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&u.Age,
		&u.Weight,
		&u.Height,
		&u.Gender,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (s *Postgres) CreateUser(ctx context.Context, u *user.User) error {
	query := `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.Exec(ctx, query,
		u.ID,
		u.ClerkID,
		u.FirstName,
		u.LastName,
		u.Email,
		u.PasswordHash,
		u.Age,
		u.Weight,
		u.Height,
		u.Gender,
		u.Avatar,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Postgres) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Postgres) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE clerk_id = $1`, clerkID))
}

func (s *Postgres) UpdateAvatar(ctx context.Context, id uuid.UUID, avatar string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET avatar = $2, updated_at = NOW() WHERE id = $1`,
		id, avatar,
	)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) LinkClerkID(ctx context.Context, id uuid.UUID, clerkID string) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE users SET clerk_id = $2, updated_at = NOW() WHERE id = $1`,
		id, clerkID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("failed to link clerk id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) UpdateBody(ctx context.Context, id uuid.UUID, age int, weight, height float64) (*user.User, error) {
	query := `
	UPDATE users
	SET age = $2, weight = $3, height = $4, updated_at = NOW()
	WHERE id = $1
	RETURNING ` + userColumns
	return scanUser(s.db.QueryRow(ctx, query, id, age, weight, height))
}

func (s *Postgres) AddDeviceToken(ctx context.Context, t *notification.DeviceToken) error {
	query := `
	INSERT INTO device_tokens (user_id, token, platform, created_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`
	if _, err := s.db.Exec(ctx, query, t.UserID, t.Token, t.Platform, t.CreatedAt); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *Postgres) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx,
		`SELECT user_id, token, platform, created_at FROM device_tokens WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform, &t.CreatedAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// ---------------------------------------------------------------------------
// Posts
// ---------------------------------------------------------------------------

const postSelect = `
	SELECT p.id, p.user_id, p.author, p.text, p.created_at,
	       COALESCE(array_agg(l.user_id::text ORDER BY l.liked_at) FILTER (WHERE l.user_id IS NOT NULL), '{}')
	FROM posts p
	LEFT JOIN post_likes l ON l.post_id = p.id
`

func scanPost(row pgx.Row) (*post.Post, error) {
	p := &post.Post{}
	var likes []string
	if err := row.Scan(&p.ID, &p.UserID, &p.Author, &p.Text, &p.Date, &likes); err != nil {
		return nil, err
	}
	p.Likes = make([]uuid.UUID, 0, len(likes))
	for _, raw := range likes {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid like user id %q: %w", raw, err)
		}
		p.Likes = append(p.Likes, id)
	}
	return p, nil
}

func (s *Postgres) ListPosts(ctx context.Context) ([]*post.Post, error) {
	rows, err := s.db.Query(ctx, postSelect+` GROUP BY p.id ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []*post.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (s *Postgres) CreatePost(ctx context.Context, p *post.Post) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO posts (id, user_id, author, text, created_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.UserID, p.Author, p.Text, p.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

func (s *Postgres) GetPost(ctx context.Context, id uuid.UUID) (*post.Post, error) {
	p, err := scanPost(s.db.QueryRow(ctx, postSelect+` WHERE p.id = $1 GROUP BY p.id`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return p, nil
}

func (s *Postgres) LikePost(ctx context.Context, postID, userID uuid.UUID) error {
	query := `
	INSERT INTO post_likes (post_id, user_id, liked_at)
	SELECT id, $2, NOW() FROM posts WHERE id = $1
	ON CONFLICT (post_id, user_id) DO NOTHING
	`
	tag, err := s.db.Exec(ctx, query, postID, userID)
	if err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check post: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}
