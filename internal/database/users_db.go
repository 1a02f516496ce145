package database

import (
	"github.com/meetup-planner/app/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// CreateUser hashes the password and inserts a new user.
func CreateUser(q Queryer, email string, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	res, err := q.Exec("INSERT INTO users (email, password_hash) VALUES (?, ?)", email, string(hashedPassword))
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return GetUserByID(q, id)
}

// GetUserByEmail retrieves a user by email address.
func GetUserByEmail(q Queryer, email string) (*models.User, error) {
	user := &models.User{}
	row := q.QueryRow("SELECT id, email, password_hash, is_admin, created_at FROM users WHERE email = ?", email)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func GetUserByID(q Queryer, id int64) (*models.User, error) {
	user := &models.User{}
	row := q.QueryRow("SELECT id, email, password_hash, is_admin, created_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetAdmin grants or revokes the admin role for a user.
func SetAdmin(q Queryer, userID int64, isAdmin bool) error {
	_, err := q.Exec("UPDATE users SET is_admin = ? WHERE id = ?", isAdmin, userID)
	return err
}

// ListUsers retrieves all users ordered by ID.
func ListUsers(q Queryer) ([]*models.User, error) {
	rows, err := q.Query("SELECT id, email, password_hash, is_admin, created_at FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CountUsers returns the total number of users.
func CountUsers(q Queryer) (int, error) {
	var n int
	err := q.QueryRow("SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// VerifyPassword compares a stored hashed password with a plaintext password.
func VerifyPassword(hashedPassword string, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
