// Seed bootstraps a development database: a manager account, a few demo
// users and reviews, and a starter offensive-word list. Run after the
// server has created its schemas (it auto-migrates on boot).
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

var (
	dsn      = flag.String("dsn", os.Getenv("DATABASE_URL"), "Postgres DSN (default: env DATABASE_URL)")
	dryRun   = flag.Bool("dry-run", false, "Print the plan; no DB writes")
	password = flag.String("password", "changeme", "Password for every seeded account")
	words    = flag.String("words", "swill,dunce,plonk,rotgut", "Comma-separated offensive words")
)

type seedUser struct {
	username string
	email    string
	roles    string // postgres array literal
}

var seedUsers = []seedUser{
	{username: "mgr", email: "mgr@brewreview.dev", roles: "{user,admin,manager}"},
	{username: "mod", email: "mod@brewreview.dev", roles: "{user,admin}"},
	{username: "alice", email: "alice@brewreview.dev", roles: "{user}"},
	{username: "bob", email: "bob@brewreview.dev", roles: "{user}"},
}

type seedReview struct {
	author  string
	rating  int
	content string
}

var seedReviews = []seedReview{
	{author: "alice", rating: 5, content: "Bright citrus nose, clean finish. Would order again."},
	{author: "alice", rating: 2, content: "Flat and watery. Disappointing for the price."},
	{author: "bob", rating: 1, content: "Absolute swill, do not bother."},
	{author: "bob", rating: 4, content: "Solid porter, heavy on the chocolate."},
}

func main() {
	_ = godotenv.Load(".env.local")
	flag.Parse()
	if *dsn == "" {
		fatalf("--dsn not provided and DATABASE_URL not set")
	}

	wordList := splitWords(*words)

	if *dryRun {
		fmt.Printf("Would seed %d users, %d reviews, %d offensive words\n",
			len(seedUsers), len(seedReviews), len(wordList))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fatalf("ping: %v", err)
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		fatalf("begin tx: %v", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op if already committed
	}()

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fatalf("hash password: %v", err)
	}

	userIDs := make(map[string]string, len(seedUsers))
	for _, u := range seedUsers {
		id := uuid.NewString()
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT user_id FROM app_auth.users WHERE username = $1`, u.username).Scan(&existing)
		switch {
		case err == nil:
			fmt.Printf("User exists, skipping: %s\n", u.username)
			userIDs[u.username] = existing
			continue
		case err != sql.ErrNoRows:
			fatalf("lookup user %s: %v", u.username, err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO app_auth.users (user_id, username, hashed_password, email, roles, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now())`,
			id, u.username, string(hash), u.email, u.roles)
		if err != nil {
			fatalf("insert user %s: %v", u.username, err)
		}
		userIDs[u.username] = id
	}

	for _, r := range seedReviews {
		authorID, ok := userIDs[r.author]
		if !ok {
			fatalf("review author %s not seeded", r.author)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO app_reviews.reviews (id, user_id, rating, content, flag_count, hidden, created_at)
			 VALUES ($1, $2, $3, $4, 0, false, now())
			 ON CONFLICT (id) DO NOTHING`,
			uuid.NewString(), authorID, r.rating, r.content)
		if err != nil {
			fatalf("insert review: %v", err)
		}
	}

	for _, w := range wordList {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO app_moderation.offensive_words (word, created_at)
			 VALUES (lower($1), now())
			 ON CONFLICT (word) DO NOTHING`, w)
		if err != nil {
			fatalf("insert word %s: %v", w, err)
		}
	}

	if err := tx.Commit(); err != nil {
		fatalf("commit: %v", err)
	}

	fmt.Printf("Seeded %d users, %d reviews, %d offensive words\n",
		len(seedUsers), len(seedReviews), len(wordList))
}

func splitWords(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
