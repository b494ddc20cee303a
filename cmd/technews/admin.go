package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/Strob0t/technews/internal/adapter/email"
	"github.com/Strob0t/technews/internal/adapter/memory"
	"github.com/Strob0t/technews/internal/adapter/newsapi"
	"github.com/Strob0t/technews/internal/config"
	"github.com/Strob0t/technews/internal/domain/article"
	"github.com/Strob0t/technews/internal/domain/contact"
	"github.com/Strob0t/technews/internal/domain/query"
	"github.com/Strob0t/technews/internal/domain/relevance"
	"github.com/Strob0t/technews/internal/service"
)

// runAdmin dispatches admin subcommands (show-config, test-mail, fetch).
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "show-config":
		return runAdminShowConfig(args[1:], os.Stdout)
	case "test-mail":
		return runAdminTestMail(args[1:])
	case "fetch":
		return runAdminFetch(args[1:], os.Stdout)
	default:
		printAdminHelp()
		return fmt.Errorf("unknown admin command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: technews admin <command> [options]

Commands:
  show-config   Print the effective configuration with secrets masked
  test-mail     Send a test message through the configured SMTP server
  fetch         Run one news query against the upstream API
  help          Show this help message

Examples:
  technews admin show-config
  technews admin test-mail --to me@example.com
  technews admin fetch --q "quantum computing"
  technews admin fetch --category indian --topic finance
`)
}

func runAdminShowConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("show-config", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return printConfig(out, cfg)
}

func printConfig(out io.Writer, cfg *config.Config) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"server.port", cfg.Server.Port},
		{"server.cors_origins", strings.Join(cfg.Server.CORSOrigins, ",")},
		{"server.static_dir", cfg.Server.StaticDir},
		{"server.trust_proxy", fmt.Sprint(cfg.Server.TrustProxy)},
		{"newsapi.base_url", cfg.NewsAPI.BaseURL},
		{"newsapi.api_key", mask(cfg.NewsAPI.APIKey)},
		{"cache.backend", cfg.Cache.Backend},
		{"cache.query_ttl", cfg.Cache.QueryTTL.String()},
		{"cache.image_ttl", cfg.Cache.ImageTTL.String()},
		{"image.max_bytes", fmt.Sprint(cfg.Image.MaxBytes)},
		{"image.max_concurrent", fmt.Sprint(cfg.Image.MaxConcurrent)},
		{"mail.host", fmt.Sprintf("%s:%d", cfg.Mail.Host, cfg.Mail.Port)},
		{"mail.user", cfg.Mail.User},
		{"mail.password", mask(cfg.Mail.Password)},
		{"mail.to", cfg.Mail.To},
		{"rate.limit", fmt.Sprintf("%d per %s", cfg.Rate.Requests, cfg.Rate.Window)},
		{"breaker", fmt.Sprintf("%d failures, %s open", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)},
		{"logging.level", cfg.Logging.Level},
		{"otel.endpoint", cfg.OTEL.Endpoint},
	}
	_, _ = fmt.Fprintln(w, "KEY\tVALUE")
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
	}
	return w.Flush()
}

// mask hides all but the last four characters of a secret.
func mask(s string) string {
	switch {
	case s == "":
		return "(unset)"
	case len(s) <= 4:
		return "****"
	default:
		return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
	}
}

func runAdminTestMail(args []string) error {
	fs := flag.NewFlagSet("test-mail", flag.ContinueOnError)
	to := fs.String("to", "", "recipient (defaults to mail.to)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Mail.User == "" {
		return fmt.Errorf("mail.user (EMAIL_USER) is required")
	}
	recipient := *to
	if recipient == "" {
		recipient = cfg.Mail.To
	}

	password := cfg.Mail.Password
	if password == "" {
		password, err = promptPassword("SMTP password: ")
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
	}

	m := email.NewMailer(email.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		From:     cfg.Mail.User,
		Password: password,
	})
	msg := contact.Message{
		Name:    "technews admin",
		Email:   cfg.Mail.User,
		Subject: "Test message",
		Message: "This is a test message sent at " + time.Now().UTC().Format(time.RFC3339) + ".",
	}
	svc := service.NewContactService(m, recipient)
	if err := svc.Submit(context.Background(), msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Test message sent to %s\n", recipient)
	return nil
}

func runAdminFetch(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	q := fs.String("q", "", "free-text search term")
	category := fs.String("category", "", "category or regional pseudo-category")
	topic := fs.String("topic", "", "relevance topic for regional categories")
	if err := fs.Parse(args); err != nil {
		return err
	}

	v := url.Values{}
	for k, s := range map[string]string{"q": *q, "category": *category} {
		if s != "" {
			v.Set(k, s)
		}
	}
	p, err := query.ParseNews(v)
	if err != nil {
		return err
	}
	t, err := relevance.ParseTopic(*topic)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	client := newsapi.NewClient(cfg.NewsAPI.BaseURL, cfg.NewsAPI.APIKey, cfg.NewsAPI.Timeout)
	svc := service.NewNewsService(client, memory.New(), cfg.Cache.QueryTTL)

	page, err := svc.Fetch(context.Background(), p)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", p, err)
	}
	if p.Operation == query.OpRegional && *topic != "" {
		page.Articles = article.Dedupe(relevance.Filter(page.Articles, t))
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\n\n", page.TotalResults)
	_, _ = fmt.Fprintln(w, "PUBLISHED\tSOURCE\tTITLE")
	for i := range page.Articles {
		a := &page.Articles[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", a.PublishedAt.Format(time.DateOnly), a.Source.Name, a.Title)
	}
	return w.Flush()
}

// promptPassword reads a password from the terminal without echoing.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)                         // newline after password input
	if err != nil {
		return "", err
	}
	return string(b), nil
}
