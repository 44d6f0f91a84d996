/*
Package main is the entry point for the Questify command line client.

It loads configuration, initializes the global logging system, restores any
persisted session, and dispatches to one of the subcommands: register, login,
logout, me, quests, complete, and chat.
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"questify/internal/app/chat"
	"questify/internal/app/gateway"
	"questify/internal/app/quests"
	"questify/internal/app/session"
	"questify/internal/configs"
	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: questify <command> [flags]

Commands:
  register   Create an adventurer account and sign in
  login      Sign in with email and password
  logout     Sign out and forget the saved session
  me         Show the signed-in adventurer's profile
  quests     List active and completed quests
  complete   Mark a quest as completed: questify complete <id>
  chat       Join the guild chat (Ctrl-C to leave)`)
}

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.Environment == "development")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys, err := session.NewSQLiteKeyStore(cfg.StateDBPath)
	if err != nil {
		logx.Fatal(err, "Failed to open local state store")
	}
	defer keys.Close()

	gw := gateway.NewClient(cfg.GatewayBaseURL, cfg.RequestTimeout)
	store := session.NewStore(gw, keys)
	store.Restore(ctx)

	command := os.Args[1]
	args := os.Args[2:]

	var cmdErr error
	switch command {
	case "register":
		cmdErr = runRegister(ctx, store, args)
	case "login":
		cmdErr = runLogin(ctx, store, args)
	case "logout":
		store.Logout(ctx)
		fmt.Println("Signed out.")
	case "me":
		cmdErr = runMe(store)
	case "quests":
		cmdErr = runQuests(ctx, gw, store)
	case "complete":
		cmdErr = runComplete(ctx, gw, store, args)
	case "chat":
		cmdErr = runChat(ctx, gw, store)
	default:
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, userMessage(cmdErr))
		os.Exit(1)
	}
}

// userMessage extracts the user-facing message from a client error.
func userMessage(err error) string {
	var clientErr *errs.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Message
	}
	return err.Error()
}

func runRegister(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	name := fs.String("name", "", "adventurer display name")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password confirmation")
	_ = fs.Parse(args)

	// Local checks run before any network call.
	if err := session.ValidateRegistrationInput(*email, *password, *confirm); err != nil {
		return err
	}
	if *name == "" {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if err := store.Register(ctx, *email, *password, *name); err != nil {
		return err
	}

	fmt.Printf("Welcome to the guild, %s!\n", store.Profile().AdventurerName)
	return nil
}

func runLogin(ctx context.Context, store *session.Store, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	_ = fs.Parse(args)

	if err := session.ValidateLoginInput(*email, *password); err != nil {
		return err
	}

	if err := store.Login(ctx, *email, *password); err != nil {
		return err
	}

	fmt.Printf("Welcome back, %s!\n", store.Profile().AdventurerName)
	return nil
}

func runMe(store *session.Store) error {
	profile := store.Profile()
	if profile == nil {
		return errs.NewError(errs.ErrUnauthorized)
	}

	fmt.Printf("%s  (level %d)\n", profile.AdventurerName, profile.Level)
	fmt.Printf("XP: %d / %d\n", profile.XP, profile.XPForNextLevel)
	fmt.Printf("Mood: %s\n", profile.LastInteractionMood)
	return nil
}

func runQuests(ctx context.Context, gw *gateway.Client, store *session.Store) error {
	if !store.IsAuthenticated() {
		return errs.NewError(errs.ErrUnauthorized)
	}

	vm := quests.New(gw, store)
	if err := vm.Refresh(ctx); err != nil {
		return err
	}

	fmt.Println("Active quests:")
	for _, q := range vm.Active() {
		fmt.Printf("  [%d] %s (+%d XP): %s\n", q.ID, q.Title, q.XPValue, q.Description)
	}

	completed := vm.Completed()
	if len(completed) > 0 {
		fmt.Printf("Completed quests (%d):\n", len(completed))
		for _, q := range completed {
			fmt.Printf("  [%d] %s (+%d XP)\n", q.ID, q.Title, q.XPValue)
		}
	}
	return nil
}

func runComplete(ctx context.Context, gw *gateway.Client, store *session.Store, args []string) error {
	if !store.IsAuthenticated() {
		return errs.NewError(errs.ErrUnauthorized)
	}
	if len(args) != 1 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	questID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return errs.NewError(errs.ErrInvalidParams)
	}

	vm := quests.New(gw, store)
	if err := vm.Complete(ctx, questID); err != nil {
		return err
	}

	fmt.Printf("Quest %d completed!\n", questID)
	return nil
}

func runChat(ctx context.Context, gw *gateway.Client, store *session.Store) error {
	profile := store.Profile()
	if profile == nil {
		return errs.NewError(errs.ErrUnauthorized)
	}

	channel := chat.NewChannel(profile.AdventurerName)
	channel.OnMessage(func(msg chat.Message) {
		fmt.Printf("[%s] %s: %s\n", msg.ReceivedAt.Format("15:04:05"), msg.Author, msg.Body)
	})

	if err := channel.Connect(ctx, gw.ChatURL()); err != nil {
		return err
	}
	// The connection is owned by this visit and released on the way out.
	defer channel.Close()

	fmt.Println("Joined guild chat. Type a message and press Enter. Ctrl-C to leave.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-channel.Done():
			return errs.NewError(errs.ErrChannelClosed)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if line == "" {
				continue
			}
			if err := channel.Send(line); err != nil {
				fmt.Fprintln(os.Stderr, userMessage(err))
			}
		}
	}
}
