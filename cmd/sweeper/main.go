package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"jobtrack-backend/internal/bootstrap"
	"jobtrack-backend/internal/shared/config"
	"jobtrack-backend/internal/shared/metrics"
	"jobtrack-backend/internal/shared/telemetry"
	"jobtrack-backend/internal/sweeper"
)

const (
	defaultRegion             = "us-east-1"
	defaultVisibilitySeconds  = 300
	defaultConcurrency        = 2
	defaultShutdownTimeoutSec = 30
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap build: %v", err)
	}
	reconciler := app.AllocationsService

	var wg sync.WaitGroup

	// Periodic sweep; catches anomalies whose hint was lost.
	wg.Add(1)
	go func() {
		defer wg.Done()
		runTicker(ctx, reconciler, cfg.SweepInterval)
	}()

	queueURL := strings.TrimSpace(cfg.SweepQueueURL)
	if queueURL != "" {
		region := strings.TrimSpace(cfg.AWSRegion)
		if region == "" {
			region = defaultRegion
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
		if err != nil {
			log.Fatalf("load aws config: %v", err)
		}
		client := sqs.NewFromConfig(awsCfg)
		pollQueue(ctx, reconciler, client, queueURL, &wg)
	} else {
		log.Printf("SWEEP_QUEUE_URL empty; running on interval only")
		<-ctx.Done()
	}

	shutdownTimeout := time.Duration(envInt("SHUTDOWN_TIMEOUT_SECONDS", defaultShutdownTimeoutSec)) * time.Second
	log.Printf("shutdown requested, waiting up to %s for in-flight sweeps", shutdownTimeout)
	waitDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitDone)
	}()
	select {
	case <-waitDone:
	case <-time.After(shutdownTimeout):
		log.Printf("shutdown timeout reached; exiting with in-flight sweeps")
	}
}

func runTicker(ctx context.Context, reconciler sweeper.Reconciler, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			repaired, err := reconciler.Reconcile(ctx)
			if err != nil {
				telemetry.Error("sweeper.interval_failed", map[string]any{"error": err.Error()})
				continue
			}
			if repaired > 0 {
				telemetry.Info("sweeper.interval_completed", map[string]any{"repaired": repaired})
			}
		}
	}
}

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

func pollQueue(ctx context.Context, reconciler sweeper.Reconciler, client sqsAPI, queueURL string, wg *sync.WaitGroup) {
	visibilitySeconds := envInt("SWEEP_SQS_VISIBILITY_TIMEOUT_SECONDS", defaultVisibilitySeconds)
	concurrency := envInt("SWEEP_CONCURRENCY", defaultConcurrency)
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	log.Printf("sweeper started queue=%s concurrency=%d visibility=%ds", queueURL, concurrency, visibilitySeconds)

pollLoop:
	for {
		select {
		case <-ctx.Done():
			break pollLoop
		default:
		}

		resp, err := client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     20,
			VisibilityTimeout:   int32(visibilitySeconds),
			AttributeNames:      []sqstypes.QueueAttributeName{sqstypes.QueueAttributeName("ApproximateReceiveCount")},
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
				break pollLoop
			}
			log.Printf("receive message: %v", err)
			continue
		}

		for _, msg := range resp.Messages {
			select {
			case <-ctx.Done():
				break pollLoop
			case sem <- struct{}{}:
			}
			metrics.IncSweepMessageReceived()
			wg.Add(1)
			go func(m sqstypes.Message) {
				defer wg.Done()
				defer func() { <-sem }()
				handleMessage(ctx, reconciler, client, queueURL, m)
			}(msg)
		}
	}
}

func handleMessage(ctx context.Context, reconciler sweeper.Reconciler, client sqsAPI, queueURL string, msg sqstypes.Message) {
	body := aws.ToString(msg.Body)
	if strings.TrimSpace(body) == "" {
		fields := baseFields(msg, "", "")
		fields["body_len"] = 0
		telemetry.Error("sweeper.hint.empty_body", fields)
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.IncSweepMessageUnrecoverable()
		}
		return
	}

	decoded, meta, err := sweeper.ParseMessage(body)
	if err != nil {
		switch e := err.(type) {
		case sweeper.ErrDecode:
			fields := baseFields(msg, "", "")
			fields["body_len"] = meta.BodyLen
			fields["body_sha256"] = meta.BodySHA
			fields["error"] = e.Err.Error()
			telemetry.Error("sweeper.hint.decode_failed", fields)
		case sweeper.ErrMissingSystemID:
			fields := baseFields(msg, "", e.RequestID)
			fields["body_len"] = meta.BodyLen
			fields["body_sha256"] = meta.BodySHA
			telemetry.Error("sweeper.hint.missing_system_id", fields)
		default:
			fields := baseFields(msg, "", "")
			fields["body_len"] = meta.BodyLen
			fields["error"] = err.Error()
			telemetry.Error("sweeper.hint.decode_failed", fields)
		}
		if deleteMessage(ctx, client, queueURL, msg, "", "") {
			metrics.IncSweepMessageUnrecoverable()
		}
		return
	}

	telemetry.Info("sweeper.hint.received", baseFields(msg, decoded.SystemID, decoded.RequestID))

	ctxWithParsed := sweeper.WithParsedMessage(ctx, decoded)
	if err := sweeper.HandleMessage(ctxWithParsed, reconciler, body); err != nil {
		fields := baseFields(msg, decoded.SystemID, decoded.RequestID)
		fields["error"] = err.Error()
		telemetry.Error("sweeper.hint.failed", fields)
		metrics.IncSweepMessageFailed()
		return
	}

	if deleteMessage(ctx, client, queueURL, msg, decoded.SystemID, decoded.RequestID) {
		telemetry.Info("sweeper.hint.completed", baseFields(msg, decoded.SystemID, decoded.RequestID))
		metrics.IncSweepMessageCompleted()
	}
}

func deleteMessage(ctx context.Context, client sqsAPI, queueURL string, msg sqstypes.Message, systemID, requestID string) bool {
	receipt := aws.ToString(msg.ReceiptHandle)
	if receipt == "" {
		fields := baseFields(msg, systemID, requestID)
		fields["error"] = "missing receipt handle"
		telemetry.Error("sweeper.hint.delete_failed", fields)
		return false
	}
	if _, err := client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receipt),
	}); err != nil {
		fields := baseFields(msg, systemID, requestID)
		fields["error"] = err.Error()
		telemetry.Error("sweeper.hint.delete_failed", fields)
		return false
	}
	return true
}

func baseFields(msg sqstypes.Message, systemID, requestID string) map[string]any {
	fields := map[string]any{
		"system_id":      systemID,
		"sqs_message_id": aws.ToString(msg.MessageId),
		"receive_count":  receiveCount(msg),
	}
	if strings.TrimSpace(requestID) != "" {
		fields["request_id"] = requestID
	}
	return fields
}

func receiveCount(msg sqstypes.Message) int {
	if msg.Attributes == nil {
		return 0
	}
	raw := msg.Attributes["ApproximateReceiveCount"]
	if raw == "" {
		return 0
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return parsed
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return val
}
