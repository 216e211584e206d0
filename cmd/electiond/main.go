// Command electiond runs the in-memory development election backend. It
// serves a demo catalog and a fixed voucher set; production elections run
// against the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/devserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	addr := flag.String("addr", "", "Listen address (defaults to ELECTIOND_ADDR or 0.0.0.0:8080)")
	flag.Parse()

	if *addr == "" {
		*addr = os.Getenv("ELECTIOND_ADDR")
	}
	if *addr == "" {
		*addr = "0.0.0.0:8080"
	}

	server := &stdhttp.Server{Addr: *addr, Handler: devserver.Demo().Handler()}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("election dev backend listening on %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	fmt.Println("Gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal(err)
	}
}
