package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

const version = "1.0.0"

type config struct {
	port int
	env  string
	db   struct {
		dsn                string
		maxOpenConnections int
		maxIdleConnections int
		maxIdleTime        time.Duration
	}
	cors struct {
		trustedOrigins []string
	}
	jwt  jwtConfig
	smtp smtpConfig
}

type application struct {
	config  config
	storage storage
	mailer  *mailer
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	var cfg config
	flag.IntVar(&cfg.port, "port", 3000, "Server Port")
	flag.StringVar(&cfg.env, "env", "development", "Environment [development|production]")

	flag.StringVar(&cfg.db.dsn, "db-dsn", os.Getenv("DB_DSN"), "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConnections, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.IntVar(&cfg.db.maxIdleConnections, "db-max-idle-conns", 25, "PostgreSQL max idle connections")
	var maxIdleTime string
	flag.StringVar(&maxIdleTime, "db-max-idle-time", "15m", "PostgreSQL max connection idle time")

	var trustedOrigins string
	flag.StringVar(&trustedOrigins, "cors-trusted-origins", "", "Trusted CORS origins (space separated)")
	flag.Parse()

	d, err := time.ParseDuration(maxIdleTime)
	if err != nil {
		cfg.db.maxIdleTime = 15 * time.Minute
		log.Printf(`invalid value %s for flag "db-max-idle-time" defaulting to %s`, maxIdleTime, cfg.db.maxIdleTime)
	} else {
		cfg.db.maxIdleTime = d
	}
	cfg.cors.trustedOrigins = strings.Fields(trustedOrigins)

	cfg.jwt, err = loadJWTConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	cfg.smtp, err = loadSMTPConfigFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("established a connection with database")

	app := &application{
		config:  cfg,
		storage: newPostgresStorage(db),
		mailer:  newMailer(cfg.smtp),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.port),
		Handler:      composeRoutes(app),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	log.Printf("Starting %s server on port %d\n", cfg.env, cfg.port)
	err = srv.ListenAndServe()
	log.Fatal(err)
}
