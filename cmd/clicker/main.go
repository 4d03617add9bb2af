// Command clicker is a terminal front-end for the clicker game.
// Press Enter to click, type q to quit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"clicker-leaderboard/client"
	"clicker-leaderboard/game"
	"clicker-leaderboard/utils"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", utils.GetEnv("CLICKER_API_URL", "http://localhost:3001/api"), "leaderboard API base URL")
	username := flag.String("user", "", "username (prompted when empty)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	toast := func(msg string) { fmt.Fprintln(os.Stderr, "🔔", msg) }
	session := game.NewSession(client.New(*apiURL), toast)
	session.OnSync = func(rows []game.Row, rank int) {
		fmt.Printf("Your rank: %d\n", rank)
		_ = game.Render(os.Stdout, rows)
	}

	in := bufio.NewScanner(os.Stdin)
	name := *username
	for {
		if name == "" {
			fmt.Print("Enter username: ")
			if !in.Scan() {
				return
			}
			name = in.Text()
		}
		err := session.Login(ctx, name)
		if err == nil {
			break
		}
		log.Printf("login failed: %v", err)
		name = ""
	}

	go session.Run(ctx)

	fmt.Println("Press Enter to click, q + Enter to quit.")
	lines := make(chan string)
	go func() {
		defer close(lines)
		for in.Scan() {
			lines <- in.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "q" {
				// one last report so the final clicks are not lost
				_ = session.Sync(context.Background())
				return
			}
			fmt.Printf("Score: %d\n", session.Click())
		}
	}
}
