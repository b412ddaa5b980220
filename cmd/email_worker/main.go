package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
	mailtpl "github.com/oksasatya/go-task-manager/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range msgs {
			handle(ctx, logger, mg, msg)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle renders and sends one job. Undecodable or unrenderable jobs are
// dropped; send failures are requeued.
func handle(ctx context.Context, logger *logrus.Logger, mg *mailer.Mailgun, msg amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.WithError(err).Warn("bad message")
		_ = msg.Nack(false, false)
		return
	}
	job.EnsureRecipient()

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			logger.WithError(err).WithField("template", job.Template).Warn("render failed")
			_ = msg.Nack(false, false)
			return
		}
		subject, text, html = s, t, h
	}

	c, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := mg.Send(c, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("to", job.To).Warn("send failed")
		_ = msg.Nack(false, true)
		return
	}
	_ = msg.Ack(false)
	logger.WithField("to", job.To).WithField("template", job.Template).Info("email sent")
}
