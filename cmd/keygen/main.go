package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studypal/assist-gateway/internal/auth"
)

func main() {
	user := flag.String("user", "", "user ID (required)")
	name := flag.String("name", "", "human-friendly key name (required)")
	env := flag.String("env", "prod", "environment prefix")
	rpm := flag.Int("rpm", 0, "requests per minute override (0 uses the configured default)")
	quota := flag.Int("quota", 0, "daily AI request quota override (0 uses the configured default)")
	expires := flag.String("expires", "365d", "expiry duration (e.g., 365d, 720h)")
	dbURL := flag.String("db-url", "", "database URL (overrides env)")
	flag.Parse()

	if *user == "" || *name == "" {
		flag.Usage()
		fmt.Fprintln(os.Stderr, "\nerror: -user and -name are required")
		os.Exit(1)
	}

	// Generate key
	rawKey, err := auth.GenerateKey(*env)
	if err != nil {
		log.Fatalf("failed to generate key: %v", err)
	}

	keyHash := auth.HashKey(rawKey)
	keyPrefix := auth.KeyPrefix(rawKey)

	// Parse expiry
	dur, err := auth.ParseDuration(*expires)
	if err != nil {
		log.Fatalf("invalid expires: %v", err)
	}
	expiresAt := time.Now().Add(dur)

	// Connect to database
	dsn := *dbURL
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		host := envOrDefault("DB_HOST", "localhost")
		port := envOrDefault("DB_PORT", "5432")
		u := envOrDefault("DB_USER", "studypal")
		pass := envOrDefault("DB_PASSWORD", "studypal-dev")
		dbname := envOrDefault("DB_NAME", "studypal")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", u, pass, host, port, dbname)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	// Insert key
	var keyID string
	err = conn.QueryRow(ctx, `
		INSERT INTO api_keys (key_hash, key_prefix, user_id, name, rpm_limit, daily_quota, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, keyHash, keyPrefix, *user, *name, nilIfZero(*rpm), nilIfZero(*quota), expiresAt).Scan(&keyID)
	if err != nil {
		log.Fatalf("failed to insert key: %v", err)
	}

	fmt.Println("=== StudyPal API Key Generated ===")
	fmt.Println()
	fmt.Printf("  Key ID:      %s\n", keyID)
	fmt.Printf("  Key Prefix:  %s\n", keyPrefix)
	fmt.Printf("  User:        %s\n", *user)
	if *rpm > 0 {
		fmt.Printf("  RPM Limit:   %d\n", *rpm)
	}
	if *quota > 0 {
		fmt.Printf("  Daily Quota: %d\n", *quota)
	}
	fmt.Printf("  Expires:     %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println()
	fmt.Println("  API Key (save this — it will NOT be shown again):")
	fmt.Printf("  %s\n", rawKey)
	fmt.Println()
	fmt.Println("==================================")
}

func nilIfZero(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
