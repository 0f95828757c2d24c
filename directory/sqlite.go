package directory

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &SQLiteStore{conn: conn}
	if err := s.init(); err != nil {
		conn.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "OpenSQLite",
		"path":     path,
	}).Info("Directory store opened")

	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			nickname TEXT NOT NULL DEFAULT '',
			profile_pic TEXT NOT NULL DEFAULT 'default.png',
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			requester_id INTEGER NOT NULL,
			target_id INTEGER NOT NULL,
			status TEXT NOT NULL CHECK(status IN ('pending', 'accepted')),
			PRIMARY KEY (requester_id, target_id),
			FOREIGN KEY (requester_id) REFERENCES users(id),
			FOREIGN KEY (target_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sender_id INTEGER NOT NULL,
			receiver_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			kind TEXT NOT NULL DEFAULT 'text',
			created_at TEXT NOT NULL,
			FOREIGN KEY (sender_id) REFERENCES users(id),
			FOREIGN KEY (receiver_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS status_updates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_target ON friendships(target_id, status)`,
	}

	for _, query := range queries {
		if _, err := s.conn.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique)
}

// CreateUser inserts a new user record.
func (s *SQLiteStore) CreateUser(username, passwordHash, nickname string) (*User, error) {
	if nickname == "" {
		nickname = username
	}
	res, err := s.conn.Exec(
		`INSERT INTO users (username, password_hash, nickname) VALUES (?, ?, ?)`,
		username, passwordHash, nickname)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.UserByID(id)
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Nickname, &u.ProfilePic, &u.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserByID returns the full user record.
func (s *SQLiteStore) UserByID(id int64) (*User, error) {
	row := s.conn.QueryRow(
		`SELECT id, username, password_hash, nickname, profile_pic, description FROM users WHERE id = ?`, id)
	return s.scanUser(row)
}

// UserByUsername returns the full user record.
func (s *SQLiteStore) UserByUsername(username string) (*User, error) {
	row := s.conn.QueryRow(
		`SELECT id, username, password_hash, nickname, profile_pic, description FROM users WHERE username = ?`, username)
	return s.scanUser(row)
}

// UpdateNickname sets the user's display name.
func (s *SQLiteStore) UpdateNickname(id int64, nickname string) error {
	return s.updateUserField(id, `UPDATE users SET nickname = ? WHERE id = ?`, nickname)
}

// UpdateDescription sets the user's profile description.
func (s *SQLiteStore) UpdateDescription(id int64, description string) error {
	return s.updateUserField(id, `UPDATE users SET description = ? WHERE id = ?`, description)
}

// UpdateProfilePic sets the user's avatar reference.
func (s *SQLiteStore) UpdateProfilePic(id int64, ref string) error {
	return s.updateUserField(id, `UPDATE users SET profile_pic = ? WHERE id = ?`, ref)
}

// UpdatePasswordHash replaces the stored credential hash.
func (s *SQLiteStore) UpdatePasswordHash(id int64, hash string) error {
	return s.updateUserField(id, `UPDATE users SET password_hash = ? WHERE id = ?`, hash)
}

func (s *SQLiteStore) updateUserField(id int64, query, value string) error {
	res, err := s.conn.Exec(query, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FriendEdge returns the edge between the unordered pair (a, b).
func (s *SQLiteStore) FriendEdge(a, b int64) (*FriendEdge, error) {
	row := s.conn.QueryRow(
		`SELECT requester_id, target_id, status FROM friendships
		 WHERE (requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?)`,
		a, b, b, a)

	var e FriendEdge
	err := row.Scan(&e.Requester, &e.Target, (*string)(&e.Status))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertPendingEdge records a new pending edge originated by requester.
func (s *SQLiteStore) InsertPendingEdge(requester, target int64) error {
	// The primary key only guards the ordered pair; the reverse direction
	// must be checked inside the same transaction, so two requests racing
	// in opposite directions cannot both insert. The connection opens with
	// _txlock=immediate, which serializes writers at Begin.
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(
		`SELECT status FROM friendships
		 WHERE (requester_id = ? AND target_id = ?) OR (requester_id = ? AND target_id = ?)`,
		requester, target, target, requester).Scan(&status)
	if err == nil {
		return ErrEdgeExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO friendships (requester_id, target_id, status) VALUES (?, ?, ?)`,
		requester, target, string(FriendPending))
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return ErrEdgeExists
		}
		return err
	}
	return tx.Commit()
}

// AcceptEdge transitions the pending edge (requester → target) to accepted.
func (s *SQLiteStore) AcceptEdge(requester, target int64) error {
	res, err := s.conn.Exec(
		`UPDATE friendships SET status = ? WHERE requester_id = ? AND target_id = ? AND status = ?`,
		string(FriendAccepted), requester, target, string(FriendPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePendingEdge removes the pending edge originated by requester
// toward target. An accepted edge is left untouched.
func (s *SQLiteStore) DeletePendingEdge(requester, target int64) error {
	res, err := s.conn.Exec(
		`DELETE FROM friendships WHERE requester_id = ? AND target_id = ? AND status = ?`,
		requester, target, string(FriendPending))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AcceptedFriends returns the public profiles linked to userID by an
// accepted edge, ordered by username.
func (s *SQLiteStore) AcceptedFriends(userID int64) ([]Profile, error) {
	rows, err := s.conn.Query(
		`SELECT u.id, u.username, u.nickname, u.profile_pic, u.description
		 FROM users u
		 JOIN friendships f ON (u.id = f.requester_id OR u.id = f.target_id)
		 WHERE (f.requester_id = ? OR f.target_id = ?) AND u.id != ? AND f.status = ?
		 ORDER BY u.username ASC`,
		userID, userID, userID, string(FriendAccepted))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfiles(rows)
}

// PendingRequestsFor returns the requester profiles of pending edges
// targeting userID, oldest first.
func (s *SQLiteStore) PendingRequestsFor(userID int64) ([]Profile, error) {
	rows, err := s.conn.Query(
		`SELECT u.id, u.username, u.nickname, u.profile_pic, u.description
		 FROM users u
		 JOIN friendships f ON u.id = f.requester_id
		 WHERE f.target_id = ? AND f.status = ?
		 ORDER BY f.rowid ASC`,
		userID, string(FriendPending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanProfiles(rows)
}

func scanProfiles(rows *sql.Rows) ([]Profile, error) {
	profiles := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.Nickname, &p.ProfilePic, &p.Description); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// InsertMessage persists a new message and returns the stored record.
func (s *SQLiteStore) InsertMessage(senderID, receiverID int64, content string, kind MessageKind) (*Message, error) {
	now := time.Now().UTC()
	res, err := s.conn.Exec(
		`INSERT INTO messages (sender_id, receiver_id, content, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		senderID, receiverID, content, string(kind), now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:         id,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Kind:       kind,
		CreatedAt:  now,
	}, nil
}

// MessagesBetween returns the full history between two identities, ordered
// by creation time ascending with ties broken by insertion order.
func (s *SQLiteStore) MessagesBetween(a, b int64) ([]Message, error) {
	rows, err := s.conn.Query(
		`SELECT id, sender_id, receiver_id, content, kind, created_at FROM messages
		 WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		 ORDER BY created_at ASC, id ASC`,
		a, b, b, a)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]Message, 0)
	for rows.Next() {
		var m Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, (*string)(&m.Kind), &createdAt); err != nil {
			return nil, err
		}
		m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// InsertStatusPost persists a new status post for the user.
func (s *SQLiteStore) InsertStatusPost(userID int64, content string) (*StatusPost, error) {
	now := time.Now().UTC()
	res, err := s.conn.Exec(
		`INSERT INTO status_updates (user_id, content, created_at) VALUES (?, ?, ?)`,
		userID, content, now.Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &StatusPost{
		ID:        id,
		UserID:    userID,
		Content:   content,
		CreatedAt: now,
	}, nil
}

var _ Store = (*SQLiteStore)(nil)
