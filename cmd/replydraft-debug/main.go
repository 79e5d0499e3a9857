// Command replydraft-debug prints the resolved account, API base, folder
// list, and sample messages, for diagnosing connectivity and folder
// resolution.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvidal/replydraft/internal/app"
	"github.com/mvidal/replydraft/internal/model"
)

type debugConfig struct {
	configPath string
	dbPath     string
	limit      int
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		app.NewLogger().WithError(err).Error("replydraft-debug failed")
		os.Exit(1)
	}
}

func parseFlags() debugConfig {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	dbPath := flag.String("db", "", "path to sqlite database (defaults to config value)")
	limit := flag.Int("limit", 5, "number of sample messages per folder")
	flag.Parse()

	return debugConfig{configPath: *configPath, dbPath: *dbPath, limit: *limit}
}

func run(cfg debugConfig) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(cfg.configPath, cfg.dbPath)
	if err != nil {
		return err
	}
	defer a.Close()

	accountID, err := a.Mail.ResolveAccountID(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Account ID: %s\n", orNull(accountID))
	fmt.Printf("API Base:   %s\n", a.Mail.APIBase(ctx))

	if accountID == "" {
		return fmt.Errorf("no account id; check scopes and token")
	}

	fmt.Println("Folders:")
	folders := a.Mail.ListFolders(ctx, accountID)
	for i, f := range folders {
		if i >= 20 {
			break
		}
		fmt.Printf("- %s | %s\n", f.FolderID, f.DisplayName())
	}

	inboxID := a.Mail.InboxFolderID(ctx, accountID)
	if inboxID == "" {
		inboxID = "2"
	}
	sentID := a.Mail.SentFolderID(ctx, accountID)
	if sentID == "" {
		sentID = "5"
	}
	fmt.Printf("Resolved Inbox: %s | Sent: %s\n", inboxID, sentID)

	inbox := a.Mail.ListMessages(ctx, accountID, inboxID, cfg.limit)
	fmt.Printf("Inbox count: %d\n", len(inbox))
	if len(inbox) > 0 {
		first := inbox[0]
		fmt.Printf("Sample inbox message: id=%s from=%s subject=%q\n",
			first.MessageID, first.FromAddress, first.Subject)
	}

	sent := a.Mail.ListMessages(ctx, accountID, sentID, cfg.limit)
	fmt.Printf("Sent count: %d\n", len(sent))
	if len(sent) > 0 {
		first := sent[0]
		fmt.Printf("Sample sent message: id=%s to=%s subject=%q\n",
			first.MessageID, first.ToAddress, first.Subject)
	}

	return nil
}

func orNull(s string) string {
	if s == "" {
		return "null"
	}
	return s
}
