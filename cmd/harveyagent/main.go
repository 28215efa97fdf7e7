package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/isa-group/harvey-agent-core/internal/adapters/analysis"
	"github.com/isa-group/harvey-agent-core/internal/adapters/extractor"
	"github.com/isa-group/harvey-agent-core/internal/blobstore"
	"github.com/isa-group/harvey-agent-core/internal/bus"
	"github.com/isa-group/harvey-agent-core/internal/cache"
	"github.com/isa-group/harvey-agent-core/internal/config"
	"github.com/isa-group/harvey-agent-core/internal/llm"
	"github.com/isa-group/harvey-agent-core/internal/llm/anthropic"
	"github.com/isa-group/harvey-agent-core/internal/llm/openai"
	"github.com/isa-group/harvey-agent-core/internal/mcp"
	"github.com/isa-group/harvey-agent-core/internal/session"
	"github.com/isa-group/harvey-agent-core/internal/tool"
	"github.com/isa-group/harvey-agent-core/internal/tool/builtin"
	"github.com/isa-group/harvey-agent-core/internal/web"
)

// Exit codes, per spec.md §9: 0 ok, 2 config error, 3 bind failure,
// 4 upstream unreachable at startup.
const (
	exitOK              = 0
	exitConfigError     = 2
	exitBindFailure     = 3
	exitUpstreamFailure = 4
)

func main() {
	config.LoadEnv()
	settings := config.Load()

	fmt.Println("Harvey Agent Core")

	llmClient, err := newLLMProvider(settings)
	if err != nil {
		log.Printf("failed to initialize LLM client: %v", err)
		os.Exit(exitConfigError)
	}
	fmt.Printf("LLM: %s (%s)\n", llmClient.GetName(), settings.LLMModel)

	extractorClient := extractor.New(extractor.Config{
		BaseURL: settings.ExtractorBaseURL,
		Model:   settings.ExtractorModel,
	})
	analysisClient := analysis.New(analysis.Config{
		BaseURL: settings.AnalysisBaseURL,
	})

	notifier := bus.New(settings.BusBufferSize)

	priceCache := cache.New(cache.Config{
		TTL:                settings.CacheTTL,
		CooldownAfterError: settings.CacheCooldownAfterError,
		MaxEntries:         settings.CacheMaxEntries,
	}, extractorClient.Transform, notifier)
	if settings.CacheBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{Addr: settings.RedisAddr})
		defer redisClient.Close()
		priceCache = priceCache.WithBackend(cache.NewRedisBackend(redisClient))
	}

	sessionStore := session.NewStore(settings.SessionTTL, settings.SessionMaxTurns)
	defer sessionStore.Close()
	priceCache = priceCache.WithSessionResolver(session.IDFromContext)

	blobStore, err := blobstore.NewFilesystemStore(settings.BlobStoreDir)
	if err != nil {
		log.Printf("failed to initialize blob store: %v", err)
		os.Exit(exitUpstreamFailure)
	}

	registry := tool.NewRegistry()
	registry.Register(builtin.NewIPricingTool(priceCache))
	registry.Register(builtin.NewSummaryTool(analysisClient))
	registry.Register(builtin.NewSubscriptionsTool(analysisClient))
	registry.Register(builtin.NewOptimalTool(analysisClient))
	registry.Register(builtin.NewFilterTool(analysisClient))
	registry.Register(builtin.NewValidateTool(analysisClient))

	if err := registry.InitAll(context.Background()); err != nil {
		log.Printf("failed to initialize tools: %v", err)
		os.Exit(exitUpstreamFailure)
	}
	defer registry.CloseAll()

	mcpManager := mcp.NewManager(settings.MCPConfigPath)
	if _, err := os.Stat(settings.MCPConfigPath); err == nil {
		connected, errs := mcpManager.ConnectAll(context.Background())
		for _, cErr := range errs {
			log.Printf("[MCP] server connect error: %v", cErr)
		}
		if connected > 0 {
			if err := mcpManager.RegisterTools(context.Background(), registry); err != nil {
				log.Printf("[MCP] failed to register remote tools: %v", err)
			}
		}
	}
	defer mcpManager.CloseAll()
	fmt.Printf("Tools: %d registered\n", len(registry.List()))

	if settings.MCPServe {
		toolServer := mcp.NewToolServer(registry)
		go func() {
			if err := toolServer.ServeStdio(context.Background()); err != nil {
				log.Printf("[MCP] stdio tool server stopped: %v", err)
			}
		}()
		fmt.Println("MCP: serving tool registry over stdio")
	}

	chatHandler := web.NewChatHandler(llmClient, registry, priceCache, sessionStore, settings)
	uploadHandler := web.NewUploadHandler(blobStore, sessionStore)
	pricingHandler := web.NewPricingHandler(blobStore, sessionStore)
	healthInfo := web.HealthInfo{
		LLMModel:     settings.LLMModel,
		ToolCount:    len(registry.List()),
		SessionCount: sessionStore.Count,
	}

	server := web.NewServer(chatHandler, notifier, uploadHandler, pricingHandler, healthInfo, settings)

	if err := server.Start(); err != nil {
		log.Printf("server error: %v", err)
		os.Exit(exitBindFailure)
	}
}

// newLLMProvider constructs the configured LLM provider. Both concrete
// clients read their own env-var knobs (LLM_* for OpenAI, ANTHROPIC_* for Anthropic)
// independently of Settings, same as the teacher's NewClientFromEnv idiom.
func newLLMProvider(settings config.Settings) (llm.LLMProvider, error) {
	switch settings.LLMProvider {
	case "anthropic":
		cfg, err := anthropic.NewConfigFromEnv()
		if err != nil {
			return nil, err
		}
		return anthropic.NewClient(cfg)
	default:
		return openai.NewClientFromEnv()
	}
}
