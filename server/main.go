package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"sealedtable/server/escrow"
	"sealedtable/server/sealed"
	"sealedtable/server/store"
	"sealedtable/server/table"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }
func section(title string) { log.Printf("%s %s %s", dim("──"), bold(title), dim("──")) }

//
// ===== env helpers =====
//

func atoiDef(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	_ = godotenv.Load()

	useColor = (os.Getenv("NO_COLOR") == "") && (strings.TrimSpace(os.Getenv("USE_COLOR")) != "0")

	var migrate, exhibition bool
	for _, a := range os.Args[1:] {
		switch a {
		case "--migrate":
			migrate = true
		case "--exhibition":
			exhibition = true
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	var db *store.DB
	if cfg.DatabaseURL != "" {
		db, err = store.Open(cfg.DatabaseURL)
		if err != nil {
			if migrate {
				log.Fatal(err)
			}
			log.Printf("DB disabled (open failed): %v", err)
			db = nil
		} else {
			defer db.Close(context.Background())
		}
	} else if migrate {
		log.Fatal("DATABASE_URL is required for --migrate")
	}
	if db != nil && (migrate || cfg.AutoMigrate) {
		if err := store.Migrate(context.Background(), db); err != nil {
			log.Fatal(err)
		}
		log.Println("migrated")
	}
	if migrate {
		return
	}

	seals := sealed.NewStore(sealed.NewLocalEngine(), cfg.Admin)
	vault := escrow.NewLedger()
	var audit table.Recorder
	if db != nil {
		audit = store.NewAudit(db)
	}
	mgr := table.New(table.Config{
		Admin: cfg.Admin,
		Vault: vault,
		Seals: seals,
		Audit: audit,
		Seed:  cfg.DealSeed,
	})

	if exhibition {
		runExhibition(mgr, vault, cfg)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      Router(mgr, db, cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shCtx)
	}()
	log.Printf("listening on http://localhost:%s (Ctrl+C to stop)", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
}
