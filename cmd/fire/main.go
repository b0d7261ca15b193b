package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/marcelsud/webhook-dispatch/config"
	"github.com/marcelsud/webhook-dispatch/webhook"
	"github.com/marcelsud/webhook-dispatch/webhook/handlebars"
)

/* fire - sends a single webhook from a parameters file and prints its outcome
 * Usage: go run ./cmd/fire -params webhook.json [-method POST] [-url /path] [-body '{...}']
 * The flags describe the inbound request templates see as originalRequest
 * Exits 1 when the webhook could not be resolved or delivered
 */

type stdoutSink chan webhook.Severity

func (s stdoutSink) Write(severity webhook.Severity, line string) {
	fmt.Printf("[%s] %s\n", severity, line)
	s <- severity
}

func main() {
	paramsFile := flag.String("params", "", "file holding the webhook parameters JSON")
	method := flag.String("method", http.MethodPost, "method of the simulated inbound request")
	url := flag.String("url", "/", "path of the simulated inbound request")
	body := flag.String("body", "", "body of the simulated inbound request")
	flag.Parse()

	if *paramsFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	raw, err := os.ReadFile(*paramsFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	spec, err := webhook.ParseSpec(raw)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	sink := make(stdoutSink, 1)
	dispatcher := webhook.NewDispatcher(
		handlebars.New(),
		webhook.NewLogNotifier(sink),
		webhook.WithSender(webhook.NewSender(cfg.WebhookTimeout, nil)),
	)

	tc := webhook.NewTemplateContext(*method, *url, "http://localhost:"+cfg.Port+*url, http.Header{}, []byte(*body))
	dispatcher.Fire(spec, tc)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.WebhookTimeout+time.Minute)
	defer cancel()
	if err := dispatcher.Wait(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if <-sink == webhook.Error {
		os.Exit(1)
	}
}
