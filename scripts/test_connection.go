//go:build ignore
// +build ignore

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️  No .env file found, using environment variables")
	}

	fmt.Println("🔍 Testing Roomy AI core connections...\n")

	fmt.Println("1️⃣  Checking Environment Variables:")
	checkEnvVar("DATABASE_URL")
	checkEnvVar("AUTH_JWT_SECRET")
	checkEnvVar("REDIS_ADDR")
	checkEnvVar("LLM_API_KEY")
	checkEnvVar("MATCH_LOG_BUCKET")
	fmt.Println()

	fmt.Println("2️⃣  Testing Database Connection:")
	testDatabaseConnection()
	fmt.Println()

	fmt.Println("3️⃣  Testing Redis Connection:")
	testRedisConnection()
	fmt.Println()

	fmt.Println("✅ Connection tests complete!")
}

func checkEnvVar(name string) {
	value := os.Getenv(name)
	if value == "" {
		fmt.Printf("   ❌ %s: NOT SET\n", name)
		return
	}
	masked := value
	if len(value) > 8 && (name == "DATABASE_URL" || name == "LLM_API_KEY" || name == "AUTH_JWT_SECRET") {
		masked = value[:4] + "..." + value[len(value)-2:]
	}
	fmt.Printf("   ✅ %s: %s\n", name, masked)
}

func testDatabaseConnection() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fmt.Println("   ❌ DATABASE_URL not set, skipping database test")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		fmt.Printf("   ❌ Database connection failed: %v\n", err)
		return
	}
	defer conn.Close(ctx)

	var result int
	if err := conn.QueryRow(ctx, "SELECT 1").Scan(&result); err != nil {
		fmt.Printf("   ❌ Database query failed: %v\n", err)
		return
	}
	fmt.Println("   ✅ Database connection successful!")

	var tableCount int
	err = conn.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = 'public'
		  AND table_name IN ('students', 'dorms', 'rooms', 'match_plans', 'ai_feedback', 'ai_match_logs')
	`).Scan(&tableCount)
	if err == nil {
		fmt.Printf("   📊 Tables found: %d/6 (students, dorms, rooms, match_plans, ai_feedback, ai_match_logs)\n", tableCount)
	}
}

func testRedisConnection() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		fmt.Println("   ⚪ REDIS_ADDR not set, the in-memory rate limiter will be used")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASSWORD")})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		fmt.Printf("   ❌ Redis connection failed: %v\n", err)
		return
	}
	fmt.Println("   ✅ Redis connection successful!")
}
