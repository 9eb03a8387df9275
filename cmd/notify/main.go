package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	texttemplate "text/template"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"
	tele "gopkg.in/telebot.v3"

	"github.com/firehall-dev/duty-roster/backend/internal/config"
	"github.com/firehall-dev/duty-roster/backend/internal/domain"
	"github.com/firehall-dev/duty-roster/backend/internal/notifier"
)

var emailSubjects = map[string]string{
	"create_user":          "Duty Roster - Account Details",
	"reset_password":       "Duty Roster - Password Reset",
	"replacement_assigned": "Duty Roster - Replacement Assigned",
	"replacement_expired":  "Duty Roster - Replacement Expired",
	"exchange_decision":    "Duty Roster - Shift Exchange",
}

var telegramTemplates = map[string]string{
	"replacement_assigned": "Hi {{.fullName}}, you are confirmed to cover the {{.shiftType}} shift on {{.shiftDate}}{{if .startTime}} from {{.startTime}} to {{.endTime}}{{end}}.",
	"replacement_expired":  "Hi {{.fullName}}, nobody applied to cover your {{.shiftType}} shift on {{.shiftDate}} before the deadline.",
	"exchange_decision":    "Hi {{.fullName}}, your shift exchange was {{.decision}}. Affected duty: {{.shiftType}} shift on {{.shiftDate}}.",
}

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * configuration
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("could not load configuration", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * mail client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("could not create mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	clientDialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("could not connect to mail server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * telegram bot
	 **********************************************/
	var bot *tele.Bot
	if cfg.Telegram.Token != "" {
		bot, err = tele.NewBot(tele.Settings{
			Token:  cfg.Telegram.Token,
			Poller: &tele.LongPoller{Timeout: time.Duration(cfg.Telegram.PollTimeout) * time.Second},
		})
		if err != nil {
			logger.Error("could not create telegram bot", slog.String("error", err.Error()))
			return
		}
	} else {
		logger.Info("no telegram token configured, telegram messages fall back to email")
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("could not connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("could not open channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		notifier.QueueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("could not declare queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	msgs, err := ch.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("could not start consuming", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("message received", slog.String("message", string(msg.Body)))

				notification := domain.NotificationMessage{}
				if err := json.Unmarshal(msg.Body, &notification); err != nil {
					logger.Error("could not decode notification", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				if notification.Channel == domain.NotifyByTelegram && bot != nil {
					if err := sendTelegram(bot, &notification); err != nil {
						logger.Error("could not send telegram message", slog.String("error", err.Error()))
						_ = msg.Nack(false, true)
						continue
					}
					_ = msg.Ack(false)
					continue
				}

				if err := sendEmail(client, cfg, &notification); err != nil {
					logger.Error("could not send email", slog.String("error", err.Error()))
					_ = msg.Nack(false, true)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("waiting for messages... (press CTRL+C to quit)")
	<-sigChan

	slog.Info("shutting down notify worker...")
	cancel()
	wg.Wait()
	slog.Info("notify worker stopped")
}

func sendEmail(client *mail.Client, cfg *config.Config, notification *domain.NotificationMessage) error {
	subject, ok := emailSubjects[notification.Type]
	if !ok {
		return fmt.Errorf("unsupported notification type %q", notification.Type)
	}

	m := mail.NewMsg()
	if err := m.From(cfg.Email.SMTP.Username); err != nil {
		return err
	}
	if err := m.To(notification.To); err != nil {
		return err
	}

	tmpl, err := template.ParseFiles(fmt.Sprintf("./templates/%s_email.html", notification.Type))
	if err != nil {
		return err
	}
	if err := m.SetBodyHTMLTemplate(tmpl, notification.Data); err != nil {
		return err
	}
	m.Subject(subject)

	return client.DialAndSend(m)
}

func sendTelegram(bot *tele.Bot, notification *domain.NotificationMessage) error {
	text, ok := telegramTemplates[notification.Type]
	if !ok {
		return fmt.Errorf("unsupported notification type %q", notification.Type)
	}

	tmpl, err := texttemplate.New(notification.Type).Parse(text)
	if err != nil {
		return err
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, notification.Data); err != nil {
		return err
	}

	_, err = bot.Send(&tele.Chat{ID: notification.TelegramChatID}, sb.String())
	return err
}
