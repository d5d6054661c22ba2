package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	billingapp "github.com/draftea/order-fulfillment/billing-service/application"
	billingdomain "github.com/draftea/order-fulfillment/billing-service/domain"
	billinghandlers "github.com/draftea/order-fulfillment/billing-service/handlers"
	billinginfra "github.com/draftea/order-fulfillment/billing-service/infrastructure"
	invoiceapp "github.com/draftea/order-fulfillment/invoice-service/application"
	invoicedomain "github.com/draftea/order-fulfillment/invoice-service/domain"
	invoicehandlers "github.com/draftea/order-fulfillment/invoice-service/handlers"
	notificationapp "github.com/draftea/order-fulfillment/notification-service/application"
	notificationdomain "github.com/draftea/order-fulfillment/notification-service/domain"
	notificationhandlers "github.com/draftea/order-fulfillment/notification-service/handlers"
	orderapp "github.com/draftea/order-fulfillment/order-service/application"
	orderdomain "github.com/draftea/order-fulfillment/order-service/domain"
	orderhandlers "github.com/draftea/order-fulfillment/order-service/handlers"
	"github.com/draftea/order-fulfillment/shared/config"
	"github.com/draftea/order-fulfillment/shared/events"
	"github.com/draftea/order-fulfillment/shared/infrastructure"
	"github.com/draftea/order-fulfillment/shared/models"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	shipmentapp "github.com/draftea/order-fulfillment/shipment-service/application"
	shipmentdomain "github.com/draftea/order-fulfillment/shipment-service/domain"
	shipmenthandlers "github.com/draftea/order-fulfillment/shipment-service/handlers"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// stageTopics is the topic each consuming stage subscribes to on the
// in-memory bus. On AWS the SNS to SQS subscriptions express the same wiring.
var stageTopics = map[saga.Stage]events.Topic{
	saga.StageInvoice:      events.TopicOrder,
	saga.StagePayment:      events.TopicInvoice,
	saga.StageShipment:     events.TopicPaymentSuccess,
	saga.StageNotification: events.TopicAll,
}

// consumingStages lists the stages that run as message consumers, in saga order.
func consumingStages() []saga.Stage {
	return []saga.Stage{saga.StageInvoice, saga.StagePayment, saga.StageShipment, saga.StageNotification}
}

type Dependencies struct {
	Config *config.Config
	Logger *slog.Logger

	// Storage
	DB    *sqlx.DB
	Redis *redis.Client
	Store infrastructure.RecordStore

	// Transport
	Publisher events.Publisher
	Bus       *infrastructure.MemoryBus
	SQS       infrastructure.SQSAPI

	// HTTP Handlers
	OrderHandlers *orderhandlers.OrderHandlers

	// Stage boundaries
	Stages map[saga.Stage]*saga.StageRunner

	// Telemetry
	Telemetry         *telemetry.Telemetry
	TelemetryShutdown func()
}

func BuildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	telConfig := telemetry.NewConfigForService(cfg.ServiceName, cfg.Env, cfg.Telemetry.OTLPEndpoint).
		WithLogLevel(cfg.LogLevel)

	deps := &Dependencies{
		Config: cfg,
		Logger: telemetry.NewLogger(telConfig),
	}

	// Initialize telemetry first
	if cfg.Telemetry.Enabled {
		tel, shutdown, err := telemetry.InitTelemetry(ctx, telConfig)
		if err != nil {
			// Continue without exporters rather than failing
			deps.Logger.Warn("failed to initialize telemetry", slog.Any("error", err))
		} else {
			deps.Telemetry = tel
			deps.TelemetryShutdown = shutdown
		}
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.NewTelemetry(telConfig)
	}

	if err := deps.buildInfrastructure(ctx); err != nil {
		_ = deps.Close()
		return nil, err
	}

	deps.buildStages()

	return deps, nil
}

func (d *Dependencies) buildInfrastructure(ctx context.Context) error {
	cfg := d.Config

	var awsCfg aws.Config
	if cfg.Transport == config.TransportAWS || cfg.Store.Driver == config.StoreDynamoDB {
		var err error
		awsCfg, err = infrastructure.LoadAWSConfig(ctx, infrastructure.AWSOptions{
			Region:          cfg.AWS.Region,
			Endpoint:        cfg.AWS.Endpoint,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			return err
		}
	}

	tables := infrastructure.Tables{
		models.KindOrder:        cfg.Store.Tables.Orders,
		models.KindInvoice:      cfg.Store.Tables.Invoices,
		models.KindPayment:      cfg.Store.Tables.Payments,
		models.KindShipment:     cfg.Store.Tables.Shipments,
		models.KindNotification: cfg.Store.Tables.Notifications,
	}

	switch cfg.Store.Driver {
	case config.StorePostgres:
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDatabaseURL())
		if err != nil {
			return errors.Wrap(err, "failed to connect to database")
		}
		d.DB = db
		d.Store = infrastructure.NewPostgresRecordStore(db, tables)
	case config.StoreMemory:
		d.Store = infrastructure.NewMemoryRecordStore()
	default:
		d.Store = infrastructure.NewDynamoDBRecordStoreFromConfig(awsCfg, tables)
	}

	switch cfg.Transport {
	case config.TransportMemory:
		d.Bus = infrastructure.NewMemoryBus(d.Logger, events.Topics()...)
		d.Publisher = d.Bus
	default:
		d.Publisher = infrastructure.NewSNSEventPublisherFromConfig(awsCfg, map[events.Topic]string{
			events.TopicOrder:          cfg.AWS.Topics.Order,
			events.TopicInvoice:        cfg.AWS.Topics.Invoice,
			events.TopicPaymentSuccess: cfg.AWS.Topics.PaymentSuccess,
			events.TopicShipment:       cfg.AWS.Topics.Shipment,
			events.TopicError:          cfg.AWS.Topics.Error,
		})
		d.SQS = sqs.NewFromConfig(awsCfg)
	}

	if cfg.Redis.Enabled {
		client, err := infrastructure.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return errors.Wrap(err, "failed to ping redis")
		}
		d.Redis = client
	}

	return nil
}

func (d *Dependencies) buildStages() {
	cfg := d.Config
	logger := d.Logger

	// Intake
	orderRepository := infrastructure.NewRepository[*orderdomain.Order](d.Store)
	d.OrderHandlers = orderhandlers.NewOrderHandlers(
		orderapp.NewCreateOrder(orderRepository, d.Publisher, logger),
		orderapp.NewGetOrderSaga(d.Store),
		logger,
	)

	// Use cases
	createInvoice := invoiceapp.NewCreateInvoice(
		infrastructure.NewRepository[*invoicedomain.Invoice](d.Store), d.Publisher, logger)
	processPayment := billingapp.NewProcessPayment(
		infrastructure.NewRepository[*billingdomain.Payment](d.Store),
		billinginfra.NewSimulatedCapturer(billingdomain.ParseOutcome(cfg.Capture.Outcome), cfg.Capture.Latency),
		d.Publisher,
		cfg.Capture.Timeout,
		logger,
	)
	shipOrder := shipmentapp.NewShipOrder(
		infrastructure.NewRepository[*shipmentdomain.Shipment](d.Store), d.Publisher, logger)
	sendNotification := notificationapp.NewSendNotification(
		infrastructure.NewRepository[*notificationdomain.NotificationLog](d.Store), logger)

	// Stage boundaries
	opts := []saga.StageOption{saga.WithErrorSink(saga.NewErrorSink(d.Publisher, logger))}
	notificationOpts := []saga.StageOption{}
	if d.Redis != nil {
		dedup := saga.WithDeduplicator(infrastructure.NewRedisDeduplicator(d.Redis,
			infrastructure.WithDedupTTL(cfg.Redis.TTL),
		))
		opts = append(opts, dedup)
		notificationOpts = append(notificationOpts, dedup)
	}

	d.Stages = map[saga.Stage]*saga.StageRunner{
		saga.StageInvoice: saga.NewStageRunner(saga.StageInvoice,
			invoicehandlers.NewInvoiceEventHandlers(createInvoice, logger), logger, opts...),
		saga.StagePayment: saga.NewStageRunner(saga.StagePayment,
			billinghandlers.NewPaymentEventHandlers(processPayment, logger), logger, opts...),
		saga.StageShipment: saga.NewStageRunner(saga.StageShipment,
			shipmenthandlers.NewShipmentEventHandlers(shipOrder, logger), logger, opts...),
		// The notification stage is the last consumer of the error topic and
		// reports nowhere.
		saga.StageNotification: saga.NewStageRunner(saga.StageNotification,
			notificationhandlers.NewNotificationEventHandlers(sendNotification, logger), logger, notificationOpts...),
	}
}

func (d *Dependencies) queueURL(stage saga.Stage) string {
	switch stage {
	case saga.StageInvoice:
		return d.Config.AWS.Queues.Invoice
	case saga.StagePayment:
		return d.Config.AWS.Queues.Payment
	case saga.StageShipment:
		return d.Config.AWS.Queues.Shipment
	case saga.StageNotification:
		return d.Config.AWS.Queues.Notification
	default:
		return ""
	}
}

// StartStages subscribes the named stages to the configured transport and
// returns a wait function that blocks until ctx ends and every consumer has
// stopped. Subscriptions exist when StartStages returns.
func (d *Dependencies) StartStages(ctx context.Context, stages ...saga.Stage) (func() error, error) {
	ctx, cancel := context.WithCancel(telemetry.WithTelemetry(ctx, d.Telemetry))
	gr, ctx := errgroup.WithContext(ctx)

	// Stages already started are stopped before a start error is returned.
	abort := func(err error) (func() error, error) {
		cancel()
		_ = gr.Wait()
		return nil, err
	}

	for _, stage := range stages {
		runner, ok := d.Stages[stage]
		if !ok {
			return abort(errors.Errorf("unknown stage %q", stage))
		}

		if d.Bus != nil {
			sub, err := d.Bus.Subscribe(stageTopics[stage], runner)
			if err != nil {
				return abort(errors.Wrapf(err, "failed to subscribe %s stage", stage))
			}
			gr.Go(func() error {
				return sub.Run(ctx)
			})
			continue
		}

		queueURL := d.queueURL(stage)
		if queueURL == "" {
			return abort(errors.Errorf("no queue configured for %s stage", stage))
		}

		subscriber := infrastructure.NewSQSEventSubscriber(d.SQS, queueURL, runner, d.Logger,
			infrastructure.WithReaders(int32(d.Config.Subscriber.Readers)),
			infrastructure.WithWorkers(int32(d.Config.Subscriber.Workers)),
			infrastructure.WithMaxMessages(d.Config.Subscriber.MaxMessages),
			infrastructure.WithWaitTimeSeconds(d.Config.Subscriber.WaitTimeSeconds),
			infrastructure.WithVisibilityTimeout(d.Config.Subscriber.VisibilityTimeout),
		)
		if err := subscriber.Start(ctx); err != nil {
			return abort(errors.Wrapf(err, "failed to start %s stage", stage))
		}
		gr.Go(func() error {
			<-ctx.Done()
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return subscriber.Stop(stopCtx)
		})
	}

	return func() error {
		defer cancel()
		return gr.Wait()
	}, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	var errs []error

	if d.Bus != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := d.Bus.Close(ctx); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close memory bus"))
		}
	}

	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close database"))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, errors.Wrap(err, "failed to close redis"))
		}
	}

	if d.TelemetryShutdown != nil {
		d.TelemetryShutdown()
	}

	if len(errs) > 0 {
		return errors.Errorf("errors closing dependencies: %v", errs)
	}

	return nil
}
