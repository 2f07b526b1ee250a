// Package app wires the application together: configuration, logging, AWS
// clients, repositories, the orchestrator and the HTTP router. Both the
// server and Lambda entrypoints initialize through here.
package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"pillarscan/internal/assessment"
	"pillarscan/internal/config"
	"pillarscan/internal/crypto"
	"pillarscan/internal/database/dynamodb"
	"pillarscan/internal/logger"
	"pillarscan/internal/orchestrator"
	"pillarscan/internal/scanner"
	"pillarscan/internal/server"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	dynamodbsdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// App holds the wired application. Router serves HTTP; Dispatcher owns the
// scan workers and must be stopped on shutdown.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Service    *orchestrator.Service
	Dispatcher *orchestrator.Dispatcher
	Router     *server.Router
}

// Initialize builds the full dependency graph and starts the scan workers.
func Initialize(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	log := logger.Initialize(cfg.Env(), cfg.SlogLevel())

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	store := dynamodb.NewStore(dynamodbsdk.NewFromConfig(awsCfg), cfg.TableName, log)
	users := dynamodb.NewUserRepository(store, log)
	credentials := dynamodb.NewCredentialRepository(store, log)
	scans := dynamodb.NewScanRepository(store, log)

	cipher, err := crypto.NewCipher(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("initializing credential cipher: %w", err)
	}

	model := assessment.NewBedrockClient(awsCfg, cfg.BedrockModelID, cfg.ModelMaxTokens, log)
	assessor := assessment.New(model, log)

	svc := orchestrator.NewService(orchestrator.Deps{
		Users:       users,
		Credentials: credentials,
		Scans:       scans,
		Cipher:      cipher,
		Assessor:    assessor,
		NewScanner: func(ctx context.Context, accessKey, secretKey string) (orchestrator.RegionScanner, error) {
			scanCfg, err := scanner.BuildConfig(ctx, accessKey, secretKey, cfg.HomeRegion)
			if err != nil {
				return nil, err
			}
			return scanner.New(scanCfg, cfg.HomeRegion, log), nil
		},
		PhaseTimeout: cfg.PhaseTimeout,
		Logger:       log,
	})

	dispatcher := orchestrator.NewDispatcher(svc, cfg.ScanWorkers, cfg.ScanQueueDepth, log)
	svc.AttachDispatcher(dispatcher)
	dispatcher.Start(ctx)

	router := server.NewRouter(svc, verifierFromEnv(), log, cfg.RequestTimeout)

	return &App{
		Config:     cfg,
		Logger:     log,
		Service:    svc,
		Dispatcher: dispatcher,
		Router:     router,
	}, nil
}

// MustInitialize is Initialize with a fatal exit on failure.
func MustInitialize(ctx context.Context) *App {
	a, err := Initialize(ctx)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	return a
}

// verifierFromEnv builds the token verifier from PILLARSCAN_API_TOKENS,
// a comma-separated list of token=userID pairs. A real identity provider
// replaces this behind the server.Verifier interface.
func verifierFromEnv() server.Verifier {
	tokens := map[string]string{}
	for _, pair := range strings.Split(os.Getenv("PILLARSCAN_API_TOKENS"), ",") {
		token, userID, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if ok && token != "" && userID != "" {
			tokens[token] = userID
		}
	}
	return server.NewStaticTokenVerifier(tokens)
}
