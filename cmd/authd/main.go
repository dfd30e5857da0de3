// Command authd runs the authentication service: the login endpoints plus
// the role-based request authorizer in front of the backend's business
// routes.
//
// Configuration comes from the environment:
//
//	AUTHD_ADDR        listen address (default ":8080")
//	AUTH_SIGNING_KEY  HS256 access-token key, at least 32 bytes (required)
//	REDIS_ADDR        credential store address (default "localhost:6379")
//	DATABASE_URL      Postgres DSN for the user directory (required)
//	AMQP_URL          RabbitMQ URL for code delivery; when empty, codes are
//	                  written to stdout (development mode)
//	AMQP_QUEUE        delivery queue name (default "auth.login-codes")
package main

import (
	"log"
	"net/http"
	"os"

	"github.com/redis/go-redis/v9"

	authcore "github.com/oleanderhq/authcore"
	"github.com/oleanderhq/authcore/directory"
	"github.com/oleanderhq/authcore/httpapi"
	"github.com/oleanderhq/authcore/middleware"
	"github.com/oleanderhq/authcore/notify"
)

func main() {
	addr := envOr("AUTHD_ADDR", ":8080")
	redisAddr := envOr("REDIS_ADDR", "localhost:6379")
	queueName := envOr("AMQP_QUEUE", "auth.login-codes")

	signingKey := os.Getenv("AUTH_SIGNING_KEY")
	if len(signingKey) < 32 {
		log.Fatal("AUTH_SIGNING_KEY must be set to at least 32 bytes")
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL must be set")
	}

	dir, err := directory.OpenPostgres(dsn)
	if err != nil {
		log.Fatal("directory:", err)
	}
	defer dir.Close()

	var sender authcore.Sender
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		queue, err := notify.NewQueue(amqpURL, queueName)
		if err != nil {
			log.Fatal("notify:", err)
		}
		defer queue.Close()
		sender = queue
	} else {
		log.Println("AMQP_URL not set, writing login codes to stdout")
		sender = notify.NewWriter(os.Stdout)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	cfg := authcore.DefaultConfig()
	cfg.SigningKey = []byte(signingKey)

	engine, err := authcore.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithDirectory(dir).
		WithSender(sender).
		WithAuditSink(authcore.NewJSONWriterSink(os.Stderr)).
		Build()
	if err != nil {
		log.Fatal("engine build:", err)
	}
	defer engine.Close()

	mux := http.NewServeMux()
	httpapi.New(engine).Register(mux)

	table := middleware.NewTable(
		middleware.Rule{Prefix: "/auth/logout", Require: middleware.Authenticated()},
		middleware.Rule{Prefix: "/auth", Require: middleware.Open()},
		middleware.Rule{Prefix: "/city", Require: middleware.Authenticated()},
		middleware.Rule{Prefix: "/user", Require: middleware.Role("user")},
		middleware.Rule{Prefix: "/admin", Require: middleware.Role("admin")},
		middleware.Rule{Prefix: "/superadmin", Require: middleware.Role("superadmin")},
	)

	handler := middleware.Authorizer(engine, table)(mux)

	log.Println("authd listening on", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
