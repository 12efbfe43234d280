// Command checkkeys verifies that the configured provider credentials work
// before the server is deployed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"speaksea/config"
	"speaksea/services"
)

func main() {
	configPath := flag.String("config", "./config/config.prod.yml", "path to config file")
	timeout := flag.Duration("timeout", 30*time.Second, "timeout per provider call")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	var completer services.Completer
	if cfg.LLM.Provider == "gemini" {
		var opts []services.GeminiOption
		if cfg.Gemini.BaseURL != "" {
			opts = append(opts, services.WithGeminiBaseURL(cfg.Gemini.BaseURL))
		}
		completer, err = services.NewGeminiCompleter(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, opts...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create gemini client: %v\n", err)
			os.Exit(1)
		}
	} else {
		completer = services.NewChatCompletionsClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, nil)
	}
	speech := services.NewOpenAISpeech(cfg.Speech.APIKey,
		services.WithSpeechBaseURL(cfg.Speech.BaseURL),
		services.WithSpeechHTTPClient(&http.Client{Timeout: *timeout}),
	)

	if failed := run(ctx, os.Stdout, cfg, completer, speech, *timeout); failed > 0 {
		os.Exit(1)
	}
}

// run reports on every credential and returns the number of failed checks.
func run(ctx context.Context, out io.Writer, cfg *config.Config, completer services.Completer, tts services.Synthesizer, timeout time.Duration) int {
	failed := 0

	fmt.Fprintln(out, "Credentials:")
	reportKey(out, "SEALION_API_KEY", cfg.LLM.APIKey)
	reportKey(out, "GEMINI_API_KEY", cfg.Gemini.APIKey)
	reportKey(out, "OPENAI_API_KEY", cfg.Speech.APIKey)
	fmt.Fprintf(out, "  completion endpoint: %s (%s)\n", cfg.LLM.BaseURL, cfg.LLM.Provider)

	fmt.Fprintf(out, "\nCompletion (%s): ", completer.Name())
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	text, err := completer.Complete(callCtx, services.CompletionRequest{
		Messages:  []services.ChatMessage{{Role: services.ChatRoleUser, Content: "Say 'API test successful'"}},
		MaxTokens: 20,
	})
	cancel()
	if !report(out, err) {
		failed++
	} else if text != "" {
		fmt.Fprintf(out, "  response: %s\n", text)
	}

	fmt.Fprint(out, "Speech synthesis: ")
	callCtx, cancel = context.WithTimeout(ctx, timeout)
	audio, err := tts.Synthesize(callCtx, "Hello", "en")
	cancel()
	if !report(out, err) {
		failed++
	} else {
		fmt.Fprintf(out, "  received %d bytes of audio\n", len(audio))
	}

	if failed > 0 {
		fmt.Fprintf(out, "\n%d check(s) failed\n", failed)
	} else {
		fmt.Fprintln(out, "\nall checks passed")
	}
	return failed
}

func reportKey(out io.Writer, name, value string) {
	if value == "" {
		fmt.Fprintf(out, "  %s: missing\n", name)
		return
	}
	fmt.Fprintf(out, "  %s: found (%d characters)\n", name, len(value))
}

// report prints the outcome of one call. A rate-limited response still
// proves the key is valid.
func report(out io.Writer, err error) bool {
	if err == nil {
		fmt.Fprintln(out, "ok")
		return true
	}
	var perr *services.ProviderError
	if errors.As(err, &perr) && perr.HTTPStatusCode() == http.StatusTooManyRequests {
		fmt.Fprintln(out, "rate limited (key is valid)")
		return true
	}
	fmt.Fprintf(out, "FAILED: %v\n", err)
	return false
}
