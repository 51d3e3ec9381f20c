package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/selfreg/domain"
	"github.com/fastygo/selfreg/pkg/logger"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Sender delivers rendered messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// templateData is what mail templates are executed against.
type templateData struct {
	User *domain.User
	Vars map[string]string
}

// Service renders mail templates from a directory and hands the result to
// a Sender. A template file defines a "subject" and a "body" block.
type Service struct {
	dir    string
	sender Sender
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[string]*template.Template
}

func NewService(dir string, sender Sender, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		dir:    dir,
		sender: sender,
		logger: log,
		cache:  make(map[string]*template.Template),
	}
}

// RenderAndSend renders templateName for the user's locale and sends it
// from one address to another. Every failure is reported as an internal
// domain error.
func (s *Service) RenderAndSend(ctx context.Context, templateName, from, to string, user *domain.User, vars map[string]string) error {
	log := logger.WithRequestID(ctx, s.logger).With(zap.String("template", templateName))

	locale := ""
	if user != nil {
		locale = user.Locale
	}
	tmpl, err := s.lookup(templateName, locale)
	if err != nil {
		log.Error("mail template unavailable", zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "mail template unavailable", err)
	}

	data := templateData{User: user, Vars: vars}
	var subject, body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&subject, "subject", data); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "render mail subject", err)
	}
	if err := tmpl.ExecuteTemplate(&body, "body", data); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "render mail body", err)
	}

	msg := Message{
		From:    from,
		To:      to,
		Subject: strings.TrimSpace(html.UnescapeString(subject.String())),
		Body:    body.String(),
	}
	if s.sender == nil {
		return domain.NewError(domain.ErrCodeInternal, "mail sender not configured")
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		log.Error("mail delivery failed", zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "send mail", err)
	}
	log.Info("mail sent")
	return nil
}

// lookup finds the most specific template for locale, e.g. for "de_DE":
// registration_de_DE.html, registration_de.html, registration.html.
func (s *Service) lookup(name, locale string) (*template.Template, error) {
	for _, file := range candidates(name, locale) {
		s.mu.RLock()
		tmpl, ok := s.cache[file]
		s.mu.RUnlock()
		if ok {
			return tmpl, nil
		}

		path := filepath.Join(s.dir, file)
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		tmpl, err := template.ParseFiles(path)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		for _, block := range []string{"subject", "body"} {
			if tmpl.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s has no %q block", file, block)
			}
		}

		s.mu.Lock()
		s.cache[file] = tmpl
		s.mu.Unlock()
		return tmpl, nil
	}
	return nil, fmt.Errorf("no template %q in %s", name, s.dir)
}

func candidates(name, locale string) []string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "-", "_")
	var out []string
	if locale != "" {
		out = append(out, name+"_"+locale+".html")
		if lang, _, found := strings.Cut(locale, "_"); found && lang != "" {
			out = append(out, name+"_"+lang+".html")
		}
	}
	return append(out, name+".html")
}
