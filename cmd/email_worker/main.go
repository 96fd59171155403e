package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clinical-monitor/config"
	"github.com/oksasatya/clinical-monitor/pkg/helpers"
	"github.com/oksasatya/clinical-monitor/pkg/mailer"
)

const (
	prefetch    = 16
	sendTimeout = 15 * time.Second
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		log.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, prefetch)
	if err != nil {
		log.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range msgs {
			handle(ctx, logger, mg, msg)
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")

	consumer.Close()
	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		cancel()
	}
}

func handle(ctx context.Context, logger *logrus.Logger, s mailer.Sender, msg amqp.Delivery) {
	c, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	out, err := mailer.Process(c, s, msg.Body)
	entry := logger.WithFields(logrus.Fields{"delivery_tag": msg.DeliveryTag, "outcome": out.String()})
	switch out {
	case mailer.Ack:
		entry.Debug("email sent")
		_ = msg.Ack(false)
	case mailer.Drop:
		entry.WithError(err).Warn("dropping email job")
		_ = msg.Nack(false, false)
	default:
		entry.WithError(err).Error("email send failed, requeueing")
		_ = msg.Nack(false, true)
	}
}
