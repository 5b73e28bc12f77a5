// coursewatch — watches a captured course-registration table and reports open
// seats, using a vision/text model for CAPTCHA decoding and table extraction.
//
// The browser layer that captures the table text and CAPTCHA images is
// external; this command consumes their output from files.
//
// Examples:
//
//	export OPENAI_API_KEY=...
//	coursewatch -model gpt-4o-mini -table snapshot.txt -interval 5m
//
//	coursewatch -provider ollama -model llama3.2-vision -captcha captcha.png
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/coursewatch/coursewatch/pkg/captcha"
	"github.com/coursewatch/coursewatch/pkg/courses"
	"github.com/coursewatch/coursewatch/pkg/llm"
	"github.com/coursewatch/coursewatch/pkg/schedule"
)

var (
	flagProvider = flag.String("provider", "openai", "LLM provider: openai|anthropic|gemini|ollama")
	flagModel    = flag.String("model", "gpt-4o-mini", "Model ID for the selected provider")
	flagTable    = flag.String("table", "", "Path to the captured registration table text")
	flagCaptcha  = flag.String("captcha", "", "Path to a CAPTCHA image to decode (one-shot, then exit)")
	flagInterval = flag.Duration("interval", 5*time.Minute, "Polling interval")
	flagRetries  = flag.Int("retries", 2, "Schema-validation retry budget per call")
	flagCache    = flag.String("cache", "", "Path to a JSON cache file (empty disables persistence)")
	flagCacheTTL = flag.Duration("cache-ttl", time.Hour, "Cache entry TTL")
	flagOnce     = flag.Bool("once", false, "Run a single check and exit")
	flagVerbose  = flag.Bool("verbose", false, "Log request/response records")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	log := logrus.New()
	if *flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	transport, err := llm.NewTransport(ctx, *flagProvider)
	if err != nil {
		log.Fatalf("transport: %v", err)
	}

	var completer llm.Completer = llm.NewClient(transport, llm.LogrusLogger{L: log})
	completer = llm.NewCachedClient(completer, 64, *flagCacheTTL, *flagCache)

	if *flagCaptcha != "" {
		image, err := os.ReadFile(*flagCaptcha)
		if err != nil {
			log.Fatalf("read captcha image: %v", err)
		}
		resolver := captcha.NewResolver(completer, *flagModel, *flagRetries)
		text, err := resolver.Resolve(ctx, image)
		if err != nil {
			log.Fatalf("decode captcha: %v", err)
		}
		fmt.Println(text)
		return
	}

	if *flagTable == "" {
		log.Fatal("either -table or -captcha is required")
	}
	extractor := courses.NewExtractor(completer, *flagModel, *flagRetries)

	check := func(ctx context.Context) error {
		snapshot, err := os.ReadFile(*flagTable)
		if err != nil {
			return fmt.Errorf("read table snapshot: %w", err)
		}
		all, err := extractor.Extract(ctx, string(snapshot))
		if err != nil {
			return err
		}
		open := courses.OpenSeats(all)
		log.WithFields(logrus.Fields{"courses": len(all), "open": len(open)}).Info("checked registration table")
		for _, c := range open {
			fmt.Printf("%s\t%s\t%d seats open\n", c.Code, c.Title, c.SeatsOpen)
		}
		return nil
	}

	if *flagOnce {
		if err := check(ctx); err != nil {
			log.Fatalf("check: %v", err)
		}
		return
	}

	poller := schedule.NewPoller(*flagInterval, check, func(err error) {
		log.Warnf("check failed: %v", err)
	})
	poller.Start(ctx)
	defer poller.Stop()

	<-ctx.Done()
}
