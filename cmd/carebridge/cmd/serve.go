package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/carebridge/carebridge/internal/gateway/server"
	"github.com/carebridge/carebridge/internal/provider"
	"github.com/carebridge/carebridge/pkg/core/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay gateway",
	Long: `Runs the CareBridge relay gateway in front of the AI provider.

The gateway exposes /translate, /stt and /tts plus a streaming
transcription endpoint, and is the only component holding the
provider credential. OPENAI_API_KEY must be set; the server will
not start without it.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("loading configuration", err)
		return err
	}

	// The credential lives only in the environment, never in config
	// files, so a leaked config can never leak the key.
	apiKey := config.APIKey()
	if apiKey == "" {
		err := fmt.Errorf("OPENAI_API_KEY is not set")
		printError("missing provider credential", err)
		return err
	}

	p, err := provider.NewOpenAI(provider.OpenAIConfig{
		APIKey:          apiKey,
		BaseURL:         cfg.Provider.BaseURL,
		ChatModel:       cfg.Provider.ChatModel,
		TranscribeModel: cfg.Provider.TranscribeModel,
		SpeechModel:     cfg.Provider.SpeechModel,
		Voice:           cfg.Provider.Voice,
	})
	if err != nil {
		printError("initializing provider", err)
		return err
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Version = Version
	srvCfg.Host = cfg.Gateway.Host
	srvCfg.Port = cfg.Gateway.Port
	srvCfg.ReadTimeout = cfg.Gateway.ReadTimeout.Duration
	srvCfg.WriteTimeout = cfg.Gateway.WriteTimeout.Duration
	srvCfg.ProviderTimeout = cfg.Gateway.ProviderTimeout.Duration
	srvCfg.StreamInterval = cfg.Gateway.StreamInterval.Duration
	srvCfg.MaxUploadBytes = cfg.Gateway.MaxUploadBytes
	srvCfg.GlossaryPath = cfg.Gateway.GlossaryPath
	srvCfg.HasAPIKey = true
	if cfg.Gateway.CORS.Enabled && len(cfg.Gateway.CORS.AllowedOrigins) > 0 {
		srvCfg.AllowedOrigin = cfg.Gateway.CORS.AllowedOrigins[0]
	}

	srv, err := server.New(srvCfg, p)
	if err != nil {
		printError("initializing gateway", err)
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := srv.StartAsync(); err != nil {
		printError("starting gateway", err)
		return err
	}
	fmt.Printf("CareBridge relay listening on %s\n", srv.Address())

	<-sigCh
	fmt.Println("\nShutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
