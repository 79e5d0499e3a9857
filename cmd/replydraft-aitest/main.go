// Command replydraft-aitest generates an AI reply suggestion for one inbox
// message and prints it, for inspecting prompt behavior without creating
// drafts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mvidal/replydraft/internal/app"
	"github.com/mvidal/replydraft/internal/htmlx"
	"github.com/mvidal/replydraft/internal/model"
)

type aitestConfig struct {
	configPath string
	dbPath     string
	messageID  string
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		app.NewLogger().WithError(err).Error("replydraft-aitest failed")
		os.Exit(1)
	}
}

func parseFlags() aitestConfig {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	dbPath := flag.String("db", "", "path to sqlite database (defaults to config value)")
	messageID := flag.String("message", "", "message id to test (defaults to the latest inbox message)")
	flag.Parse()

	return aitestConfig{configPath: *configPath, dbPath: *dbPath, messageID: *messageID}
}

func run(cfg aitestConfig) error {
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
	if accountID == "" {
		return fmt.Errorf("no account id; connect first")
	}

	inboxID := a.Mail.InboxFolderID(ctx, accountID)
	if inboxID == "" {
		inboxID = "2"
	}

	messageID := cfg.messageID
	if messageID == "" {
		list := a.Mail.ListMessages(ctx, accountID, inboxID, 1)
		if len(list) == 0 {
			return fmt.Errorf("no inbox message found")
		}
		messageID = list[0].MessageID
	}

	detail := a.Mail.GetMessage(ctx, accountID, messageID)
	if detail == nil {
		return fmt.Errorf("message %s not found", messageID)
	}

	incoming := htmlx.StripTags(a.Mail.MessageBody(ctx, accountID, messageID, &detail.Message))

	fmt.Printf("Subject: %s\n", detail.Subject)
	fmt.Printf("From:    %s\n", detail.FromAddress)
	preview := incoming
	if len(preview) > 200 {
		preview = preview[:200]
	}
	fmt.Printf("Body preview: %s\n\n", preview)

	reply := a.AI.SuggestReply(ctx, incoming, nil, detail.Subject, detail.FromAddress)
	fmt.Println("AI Suggested Reply:")
	if reply == "" {
		fmt.Println("[NULL]")
	} else {
		fmt.Println(reply)
	}
	return nil
}
