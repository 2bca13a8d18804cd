package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/openrouter-relay/internal/bot"
	"github.com/zhouzirui/openrouter-relay/internal/config"
	"github.com/zhouzirui/openrouter-relay/internal/service/ai"
	"github.com/zhouzirui/openrouter-relay/internal/service/openrouter"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	if !cfg.Bot.Enabled() || !cfg.OpenRouter.Enabled() {
		log.Println("BOT_TOKEN or OPENROUTER_API_KEY not set")
		return
	}

	chatModel := openrouter.NewChatModel(openrouter.NewClient(cfg.OpenRouter), cfg.OpenRouter)
	resolver := ai.NewResolver(chatModel, cfg.Bot.Models)

	telegramBot, err := bot.New(cfg.Bot.Token, cfg.Bot.Debug, resolver)
	if err != nil {
		log.Fatalf("failed to start bot: %v", err)
	}

	log.Printf("Bot running as @%s...", telegramBot.Username())
	log.Printf("Fallback models: %d -> %s", len(cfg.Bot.Models), strings.Join(cfg.Bot.Models, ", "))

	if err := telegramBot.Run(ctx); err != nil {
		log.Fatalf("bot error: %v", err)
	}
	log.Println("Bot stopped")
}
